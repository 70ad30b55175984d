package sep2

import (
	"fmt"

	"github.com/gridpulse/csipd/core/model"
)

func newNotification(subscribedResource string, sub *model.Subscription, hrefPrefix string) *Notification {
	return &Notification{
		Xmlns:              XMLNS,
		XmlnsXsi:           XMLNSXsi,
		SubscribedResource: subscribedResource,
		Status:             NotificationStatusDefault,
		SubscriptionURI:    SubscriptionHref(hrefPrefix, DisplaySiteID(sub), sub.SubscriptionID),
	}
}

// MapSitesToNotification builds the notification for a page of changed sites.
func MapSitesToNotification(sites []*model.Site, sub *model.Subscription, hrefPrefix string) *Notification {
	var resource string
	if sub.ScopedSiteID == nil {
		resource = EndDeviceListHref(hrefPrefix)
	} else {
		resource = EndDeviceHref(hrefPrefix, *sub.ScopedSiteID)
	}

	devices := make([]EndDevice, 0, len(sites))
	for _, s := range sites {
		devices = append(devices, EndDevice{
			Href:        EndDeviceHref(hrefPrefix, s.SiteID),
			SFDI:        s.SFDI,
			LFDI:        s.LFDI,
			ChangedTime: s.ChangedTime.Unix(),
		})
	}

	n := newNotification(resource, sub, hrefPrefix)
	n.Resource = &EndDeviceList{
		XsiType:    XsiTypeEndDeviceList,
		All:        len(devices),
		Results:    len(devices),
		EndDevices: devices,
	}
	return n
}

// MapDoesToNotification builds the notification for a page of changed
// dynamic operating envelopes. The subscribedResource is anchored at the
// subscription's display site, the virtual end-device for unscoped ones.
func MapDoesToNotification(does []*model.DynamicOperatingEnvelope, sub *model.Subscription, hrefPrefix string) *Notification {
	controls := make([]DERControl, 0, len(does))
	for _, d := range does {
		controls = append(controls, DERControl{
			MRID: fmt.Sprintf("%032X", d.DynamicOperatingEnvelopeID),
			Interval: Interval{
				Start:    d.StartTime.Unix(),
				Duration: d.DurationSeconds,
			},
			Base: DERControlBase{
				OpModImpLimW: &ActivePower{Value: d.ImportLimitActiveWatts},
				OpModExpLimW: &ActivePower{Value: d.ExportLimitActiveWatts},
			},
		})
	}

	n := newNotification(DERControlListHref(hrefPrefix, DisplaySiteID(sub)), sub, hrefPrefix)
	n.Resource = &DERControlList{
		XsiType:     XsiTypeDERControlList,
		All:         len(controls),
		Results:     len(controls),
		DERControls: controls,
	}
	return n
}

// MapRatesToNotification builds the notification for a page of tariff rates
// limited to a single price stream. day is the site-local calendar date the
// batch belongs to.
func MapRatesToNotification(tariffID int64, day string, prt PricingReadingType, rates []*model.TariffGeneratedRate, sub *model.Subscription, hrefPrefix string) (*Notification, error) {
	intervals := make([]TimeTariffInterval, 0, len(rates))
	for _, r := range rates {
		price, err := PriceFor(r, prt)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, TimeTariffInterval{
			Interval: Interval{
				Start:    r.StartTime.Unix(),
				Duration: r.DurationSeconds,
			},
			Price: price,
		})
	}

	n := newNotification(TimeTariffIntervalListHref(hrefPrefix, DisplaySiteID(sub), tariffID, day, prt), sub, hrefPrefix)
	n.Resource = &TimeTariffIntervalList{
		XsiType:             XsiTypeTimeTariffIntervalList,
		All:                 len(intervals),
		Results:             len(intervals),
		TimeTariffIntervals: intervals,
	}
	return n, nil
}

// MapReadingsToNotification builds the notification for a page of readings
// belonging to a single reading type.
func MapReadingsToNotification(siteReadingTypeID int64, readings []*model.SiteReading, sub *model.Subscription, hrefPrefix string) *Notification {
	entries := make([]Reading, 0, len(readings))
	for _, r := range readings {
		entries = append(entries, Reading{
			Value:        r.Value,
			QualityFlags: r.QualityFlags,
			TimePeriod: Interval{
				Start:    r.TimePeriodStart.Unix(),
				Duration: r.TimePeriodSeconds,
			},
		})
	}

	n := newNotification(ReadingListHref(hrefPrefix, DisplaySiteID(sub), siteReadingTypeID), sub, hrefPrefix)
	n.Resource = &ReadingList{
		XsiType:  XsiTypeReadingList,
		All:      len(entries),
		Results:  len(entries),
		Readings: entries,
	}
	return n
}

// MapDERAvailabilityToNotification builds the singleton notification for a
// DER availability record.
func MapDERAvailabilityToNotification(derID int64, av *model.SiteDERAvailability, sub *model.Subscription, hrefPrefix string) *Notification {
	resource := DERAvailabilityHref(hrefPrefix, DisplaySiteID(sub), derID)
	n := newNotification(resource, sub, hrefPrefix)
	n.Resource = &DERAvailability{
		XsiType:              XsiTypeDERAvailability,
		Href:                 resource,
		AvailabilityDuration: av.AvailabilityDurationSec,
		EstimatedWAvail:      av.EstimatedWAvail,
		EstimatedVarAvail:    av.EstimatedVarAvail,
	}
	return n
}

// MapDERRatingToNotification builds the singleton notification for a DER
// rating (capability) record.
func MapDERRatingToNotification(derID int64, rating *model.SiteDERRating, sub *model.Subscription, hrefPrefix string) *Notification {
	resource := DERCapabilityHref(hrefPrefix, DisplaySiteID(sub), derID)
	n := newNotification(resource, sub, hrefPrefix)
	n.Resource = &DERCapability{
		XsiType:   XsiTypeDERCapability,
		Href:      resource,
		RtgMaxW:   ActivePower{Value: rating.MaxW},
		RtgMaxVA:  rating.MaxVA,
		RtgMaxVar: rating.MaxVar,
	}
	return n
}

// MapDERSettingToNotification builds the singleton notification for a DER
// setting record.
func MapDERSettingToNotification(derID int64, setting *model.SiteDERSetting, sub *model.Subscription, hrefPrefix string) *Notification {
	resource := DERSettingsHref(hrefPrefix, DisplaySiteID(sub), derID)
	n := newNotification(resource, sub, hrefPrefix)
	n.Resource = &DERSettings{
		XsiType:  XsiTypeDERSettings,
		Href:     resource,
		SetMaxW:  ActivePower{Value: setting.SetMaxW},
		SetMaxVA: setting.SetMaxVA,
		SetGradW: setting.SetGradW,
	}
	return n
}

// MapDERStatusToNotification builds the singleton notification for a DER
// status record.
func MapDERStatusToNotification(derID int64, status *model.SiteDERStatus, sub *model.Subscription, hrefPrefix string) *Notification {
	resource := DERStatusHref(hrefPrefix, DisplaySiteID(sub), derID)
	n := newNotification(resource, sub, hrefPrefix)
	n.Resource = &DERStatus{
		XsiType:               XsiTypeDERStatus,
		Href:                  resource,
		GenConnectStatus:      status.GeneratorConnectStatus,
		OperationalModeStatus: status.OperationalModeStatus,
	}
	return n
}
