package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpulse/csipd/core/model"
)

func int64Ptr(v int64) *int64 { return &v }

func testSite(siteID, aggID int64) *model.Site {
	return &model.Site{SiteID: siteID, AggregatorID: aggID, NMI: "NMI0001", TimezoneID: "Australia/Brisbane"}
}

func testDoe(id, siteID, aggID int64) *model.DynamicOperatingEnvelope {
	return &model.DynamicOperatingEnvelope{
		DynamicOperatingEnvelopeID: id,
		SiteID:                     siteID,
		ImportLimitActiveWatts:     5000,
		ExportLimitActiveWatts:     3000,
		Site:                       testSite(siteID, aggID),
	}
}

func testReading(value int64, typeID, siteID, aggID int64) *model.SiteReading {
	return &model.SiteReading{
		SiteReadingTypeID: typeID,
		Value:             value,
		ReadingType:       &model.SiteReadingType{SiteReadingTypeID: typeID, SiteID: siteID, AggregatorID: aggID},
	}
}

func TestMatchUnscopedSubscriptionReceivesAll(t *testing.T) {
	sub := &model.Subscription{ResourceType: model.ResourceDynamicOperatingEnvelope}
	entities := []Entity{testDoe(1, 1, 1), testDoe(2, 1, 1), testDoe(3, 2, 1)}

	matched, err := EntitiesServicedBySubscription(sub, model.ResourceDynamicOperatingEnvelope, entities)
	require.NoError(t, err)
	assert.Len(t, matched, 3)
}

func TestMatchResourceTypeMismatchMatchesNothing(t *testing.T) {
	sub := &model.Subscription{ResourceType: model.ResourceSite}
	entities := []Entity{testDoe(1, 1, 1)}

	matched, err := EntitiesServicedBySubscription(sub, model.ResourceDynamicOperatingEnvelope, entities)
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestMatchScopedSiteFilters(t *testing.T) {
	sub := &model.Subscription{
		ResourceType: model.ResourceDynamicOperatingEnvelope,
		ScopedSiteID: int64Ptr(2),
	}
	entities := []Entity{testDoe(1, 1, 1), testDoe(2, 2, 1), testDoe(3, 2, 1)}

	matched, err := EntitiesServicedBySubscription(sub, model.ResourceDynamicOperatingEnvelope, entities)
	require.NoError(t, err)
	require.Len(t, matched, 2)
	for _, e := range matched {
		assert.Equal(t, int64(2), e.(*model.DynamicOperatingEnvelope).SiteID)
	}
}

func TestMatchResourceIDFilters(t *testing.T) {
	sub := &model.Subscription{
		ResourceType: model.ResourceDynamicOperatingEnvelope,
		ResourceID:   int64Ptr(3),
	}
	entities := []Entity{testDoe(1, 1, 1), testDoe(3, 1, 1)}

	matched, err := EntitiesServicedBySubscription(sub, model.ResourceDynamicOperatingEnvelope, entities)
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, int64(3), matched[0].(*model.DynamicOperatingEnvelope).DynamicOperatingEnvelopeID)
}

func TestMatchPreservesInputOrder(t *testing.T) {
	sub := &model.Subscription{ResourceType: model.ResourceDynamicOperatingEnvelope}
	entities := []Entity{testDoe(5, 1, 1), testDoe(2, 1, 1), testDoe(9, 1, 1)}

	matched, err := EntitiesServicedBySubscription(sub, model.ResourceDynamicOperatingEnvelope, entities)
	require.NoError(t, err)
	require.Len(t, matched, 3)
	assert.Equal(t, int64(5), matched[0].(*model.DynamicOperatingEnvelope).DynamicOperatingEnvelopeID)
	assert.Equal(t, int64(2), matched[1].(*model.DynamicOperatingEnvelope).DynamicOperatingEnvelopeID)
	assert.Equal(t, int64(9), matched[2].(*model.DynamicOperatingEnvelope).DynamicOperatingEnvelopeID)
}

func TestMatchUnknownResourceErrors(t *testing.T) {
	sub := &model.Subscription{ResourceType: model.SubscriptionResource(99)}
	_, err := EntitiesServicedBySubscription(sub, model.SubscriptionResource(99), nil)
	assert.ErrorIs(t, err, ErrUnsupportedResource)
}

func TestConditionBothBoundsOnlyOutOfBandMatches(t *testing.T) {
	sub := &model.Subscription{
		ResourceType: model.ResourceReading,
		Conditions: []model.SubscriptionCondition{{
			Attribute:      model.ConditionReadingValue,
			LowerThreshold: int64Ptr(10),
			UpperThreshold: int64Ptr(20),
		}},
	}
	cases := []struct {
		value int64
		want  bool
	}{
		{5, true},   // below the band
		{9, true},   // just below
		{10, false}, // lower bound is inside the band
		{15, false}, // inside
		{20, false}, // upper bound is inside the band
		{21, true},  // just above
		{100, true}, // above the band
	}
	for _, tc := range cases {
		entities := []Entity{testReading(tc.value, 1, 1, 1)}
		matched, err := EntitiesServicedBySubscription(sub, model.ResourceReading, entities)
		require.NoError(t, err)
		assert.Equal(t, tc.want, len(matched) == 1, "value %d", tc.value)
	}
}

func TestConditionSingleBound(t *testing.T) {
	lowerOnly := &model.Subscription{
		ResourceType: model.ResourceReading,
		Conditions: []model.SubscriptionCondition{{
			Attribute:      model.ConditionReadingValue,
			LowerThreshold: int64Ptr(10),
		}},
	}
	matched, err := EntitiesServicedBySubscription(lowerOnly, model.ResourceReading, []Entity{testReading(5, 1, 1, 1)})
	require.NoError(t, err)
	assert.Len(t, matched, 1, "below the lower threshold fires")

	matched, err = EntitiesServicedBySubscription(lowerOnly, model.ResourceReading, []Entity{testReading(1000, 1, 1, 1)})
	require.NoError(t, err)
	assert.Empty(t, matched, "no upper bound means large values never fire")

	upperOnly := &model.Subscription{
		ResourceType: model.ResourceReading,
		Conditions: []model.SubscriptionCondition{{
			Attribute:      model.ConditionReadingValue,
			UpperThreshold: int64Ptr(20),
		}},
	}
	matched, err = EntitiesServicedBySubscription(upperOnly, model.ResourceReading, []Entity{testReading(25, 1, 1, 1)})
	require.NoError(t, err)
	assert.Len(t, matched, 1, "above the upper threshold fires")

	matched, err = EntitiesServicedBySubscription(upperOnly, model.ResourceReading, []Entity{testReading(-5, 1, 1, 1)})
	require.NoError(t, err)
	assert.Empty(t, matched, "no lower bound means small values never fire")
}

func TestConditionsCombineWithAND(t *testing.T) {
	// Two conditions on the same attribute: a value must sit outside both
	// bands to pass.
	sub := &model.Subscription{
		ResourceType: model.ResourceReading,
		Conditions: []model.SubscriptionCondition{
			{Attribute: model.ConditionReadingValue, UpperThreshold: int64Ptr(20)},
			{Attribute: model.ConditionReadingValue, UpperThreshold: int64Ptr(50)},
		},
	}
	matched, err := EntitiesServicedBySubscription(sub, model.ResourceReading, []Entity{testReading(30, 1, 1, 1)})
	require.NoError(t, err)
	assert.Empty(t, matched, "passes the first band but not the second")

	matched, err = EntitiesServicedBySubscription(sub, model.ResourceReading, []Entity{testReading(60, 1, 1, 1)})
	require.NoError(t, err)
	assert.Len(t, matched, 1)
}

func TestConditionsIgnoredForNonReadingResources(t *testing.T) {
	sub := &model.Subscription{
		ResourceType: model.ResourceDynamicOperatingEnvelope,
		Conditions: []model.SubscriptionCondition{{
			Attribute:      model.ConditionReadingValue,
			LowerThreshold: int64Ptr(0),
			UpperThreshold: int64Ptr(0),
		}},
	}
	matched, err := EntitiesServicedBySubscription(sub, model.ResourceDynamicOperatingEnvelope, []Entity{testDoe(1, 1, 1)})
	require.NoError(t, err)
	assert.Len(t, matched, 1)
}
