package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpulse/csipd/core/model"
	"github.com/gridpulse/csipd/core/sep2"
)

func TestClampEntityLimit(t *testing.T) {
	assert.Equal(t, 1, ClampEntityLimit(0))
	assert.Equal(t, 1, ClampEntityLimit(-7))
	assert.Equal(t, 1, ClampEntityLimit(1))
	assert.Equal(t, 42, ClampEntityLimit(42))
	assert.Equal(t, MaxNotificationPageSize, ClampEntityLimit(MaxNotificationPageSize))
	assert.Equal(t, MaxNotificationPageSize, ClampEntityLimit(100000))
}

func TestEntityPagesSplitsByPageSize(t *testing.T) {
	sub := &model.Subscription{ResourceType: model.ResourceDynamicOperatingEnvelope}
	entities := []Entity{testDoe(1, 1, 1), testDoe(2, 1, 1), testDoe(3, 1, 1), testDoe(4, 1, 1), testDoe(5, 1, 1)}

	pages := EntityPages(model.ResourceDynamicOperatingEnvelope, sub, BatchKey{AggregatorID: 1, SiteID: 1}, 2, entities)
	require.Len(t, pages, 3)
	assert.Len(t, pages[0].Entities, 2)
	assert.Len(t, pages[1].Entities, 2)
	assert.Len(t, pages[2].Entities, 1)
}

func TestEntityPagesAssignsUniqueNotificationIDs(t *testing.T) {
	sub := &model.Subscription{ResourceType: model.ResourceDynamicOperatingEnvelope}
	entities := []Entity{testDoe(1, 1, 1), testDoe(2, 1, 1), testDoe(3, 1, 1)}

	pages := EntityPages(model.ResourceDynamicOperatingEnvelope, sub, BatchKey{}, 1, entities)
	require.Len(t, pages, 3)
	seen := map[string]bool{}
	for _, p := range pages {
		require.NotEmpty(t, p.NotificationID)
		assert.False(t, seen[p.NotificationID], "duplicate notification id %s", p.NotificationID)
		seen[p.NotificationID] = true
	}
}

func TestEntityPagesRatesMultiplyPerPriceStream(t *testing.T) {
	sub := &model.Subscription{ResourceType: model.ResourceTariffGeneratedRate}
	entities := []Entity{
		&model.TariffGeneratedRate{TariffGeneratedRateID: 1},
		&model.TariffGeneratedRate{TariffGeneratedRateID: 2},
		&model.TariffGeneratedRate{TariffGeneratedRateID: 3},
	}

	pages := EntityPages(model.ResourceTariffGeneratedRate, sub, BatchKey{}, 2, entities)
	// 2 chunks per price stream, 4 price streams.
	require.Len(t, pages, 8)
	counts := map[sep2.PricingReadingType]int{}
	for _, p := range pages {
		counts[p.PricingReadingType]++
	}
	for _, prt := range sep2.AllPricingReadingTypes {
		assert.Equal(t, 2, counts[prt], "price stream %s", prt)
	}
}

func TestEntityPagesDERSingletons(t *testing.T) {
	sub := &model.Subscription{ResourceType: model.ResourceSiteDERStatus}
	der := &model.SiteDER{SiteDERID: 1, SiteID: 1, Site: testSite(1, 1)}
	entities := []Entity{
		&model.SiteDERStatus{SiteDERStatusID: 1, SiteDER: der},
		&model.SiteDERStatus{SiteDERStatusID: 2, SiteDER: der},
		&model.SiteDERStatus{SiteDERStatusID: 3, SiteDER: der},
	}

	// Page size is irrelevant: DER records are not list-capable.
	pages := EntityPages(model.ResourceSiteDERStatus, sub, BatchKey{}, 100, entities)
	require.Len(t, pages, 3)
	for _, p := range pages {
		assert.Len(t, p.Entities, 1)
	}
}

func TestEntityPagesEmptyInput(t *testing.T) {
	sub := &model.Subscription{ResourceType: model.ResourceSite}
	pages := EntityPages(model.ResourceSite, sub, BatchKey{}, 10, nil)
	assert.Empty(t, pages)
}
