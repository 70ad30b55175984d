package sep2

import (
	"fmt"

	"github.com/gridpulse/csipd/core/model"
)

// VirtualEndDeviceSiteID is the site id used in hrefs for subscriptions that
// are not scoped to a single site. The protocol surface exposes it as the
// aggregator's own virtual end-device.
const VirtualEndDeviceSiteID int64 = 0

// DOEProgramID is the fixed DERProgram path segment under which dynamic
// operating envelopes are served. There is a single program per site.
const DOEProgramID = "doe"

func href(prefix, format string, args ...any) string {
	return prefix + fmt.Sprintf(format, args...)
}

// DisplaySiteID resolves the site id used when building hrefs for sub:
// the scoped site when set, the virtual end-device otherwise.
func DisplaySiteID(sub *model.Subscription) int64 {
	if sub.ScopedSiteID != nil {
		return *sub.ScopedSiteID
	}
	return VirtualEndDeviceSiteID
}

// SubscriptionHref is the canonical location of a subscription resource.
func SubscriptionHref(prefix string, displaySiteID, subscriptionID int64) string {
	return href(prefix, "/edev/%d/sub/%d", displaySiteID, subscriptionID)
}

func EndDeviceListHref(prefix string) string {
	return href(prefix, "/edev")
}

func EndDeviceHref(prefix string, siteID int64) string {
	return href(prefix, "/edev/%d", siteID)
}

func DERControlListHref(prefix string, siteID int64) string {
	return href(prefix, "/edev/%d/derp/%s/derc", siteID, DOEProgramID)
}

func TimeTariffIntervalListHref(prefix string, siteID, tariffID int64, day string, prt PricingReadingType) string {
	return href(prefix, "/edev/%d/tp/%d/rc/%s/%d/tti", siteID, tariffID, day, int(prt))
}

func ReadingListHref(prefix string, siteID, siteReadingTypeID int64) string {
	return href(prefix, "/edev/%d/mup/%d/rs/all/r", siteID, siteReadingTypeID)
}

func DERAvailabilityHref(prefix string, siteID, derID int64) string {
	return href(prefix, "/edev/%d/der/%d/dera", siteID, derID)
}

func DERCapabilityHref(prefix string, siteID, derID int64) string {
	return href(prefix, "/edev/%d/der/%d/dercap", siteID, derID)
}

func DERSettingsHref(prefix string, siteID, derID int64) string {
	return href(prefix, "/edev/%d/der/%d/derg", siteID, derID)
}

func DERStatusHref(prefix string, siteID, derID int64) string {
	return href(prefix, "/edev/%d/der/%d/ders", siteID, derID)
}
