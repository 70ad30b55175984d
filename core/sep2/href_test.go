package sep2

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridpulse/csipd/core/model"
)

func TestDisplaySiteID(t *testing.T) {
	unscoped := &model.Subscription{}
	assert.Equal(t, VirtualEndDeviceSiteID, DisplaySiteID(unscoped))

	siteID := int64(7)
	scoped := &model.Subscription{ScopedSiteID: &siteID}
	assert.Equal(t, int64(7), DisplaySiteID(scoped))
}

func TestHrefs(t *testing.T) {
	assert.Equal(t, "/api/edev/3/sub/12", SubscriptionHref("/api", 3, 12))
	assert.Equal(t, "/api/edev", EndDeviceListHref("/api"))
	assert.Equal(t, "/api/edev/3", EndDeviceHref("/api", 3))
	assert.Equal(t, "/api/edev/3/derp/doe/derc", DERControlListHref("/api", 3))
	assert.Equal(t, "/api/edev/3/tp/9/rc/2024-05-01/1/tti", TimeTariffIntervalListHref("/api", 3, 9, "2024-05-01", ImportActivePowerKWH))
	assert.Equal(t, "/api/edev/3/mup/4/rs/all/r", ReadingListHref("/api", 3, 4))
	assert.Equal(t, "/api/edev/3/der/1/dera", DERAvailabilityHref("/api", 3, 1))
	assert.Equal(t, "/api/edev/3/der/1/dercap", DERCapabilityHref("/api", 3, 1))
	assert.Equal(t, "/api/edev/3/der/1/derg", DERSettingsHref("/api", 3, 1))
	assert.Equal(t, "/api/edev/3/der/1/ders", DERStatusHref("/api", 3, 1))
}

func TestHrefsWithEmptyPrefix(t *testing.T) {
	assert.Equal(t, "/edev/0/sub/1", SubscriptionHref("", 0, 1))
}

func TestPriceFor(t *testing.T) {
	rate := &model.TariffGeneratedRate{
		ImportActivePrice:   1,
		ExportActivePrice:   2,
		ImportReactivePrice: 3,
		ExportReactivePrice: 4,
	}
	for i, prt := range AllPricingReadingTypes {
		price, err := PriceFor(rate, prt)
		assert.NoError(t, err)
		assert.Equal(t, int64(i+1), price)
	}

	_, err := PriceFor(rate, PricingReadingType(0))
	assert.Error(t, err)
}
