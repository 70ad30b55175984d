package notify

import (
	"errors"
	"fmt"

	"github.com/gridpulse/csipd/core/model"
)

// ErrUnsupportedResource is raised when a resource kind has no registered
// behaviour. This is a programming/config error, never retried.
var ErrUnsupportedResource = errors.New("notify: unsupported subscription resource")

// PublicSiteDERID is the fixed identifier of the single logical DER device
// modelled under every site.
const PublicSiteDERID int64 = 1

// batchKeyDayFormat is the calendar-date component of rate batch keys. Rate
// start times are site-local by the time they reach this package.
const batchKeyDayFormat = "2006-01-02"

// Entity is any resource row handled by the notification engine. The
// concrete types are the core/model resource structs; per-kind behaviour is
// resolved through kindTable.
type Entity = any

// BatchKey identifies the single subscribed resource a group of changed
// entities is notified under. AggregatorID is always populated; the
// remaining fields depend on the resource kind:
//
//	site:                      (AggregatorID, SiteID)
//	reading:                   (AggregatorID, SiteID, ResourceID=reading type id)
//	dynamic_operating_envelope:(AggregatorID, SiteID)
//	tariff_generated_rate:     (AggregatorID, TariffID, SiteID, Day)
//	site_der_*:                (AggregatorID, SiteID, ResourceID=PublicSiteDERID)
type BatchKey struct {
	AggregatorID int64
	TariffID     int64
	SiteID       int64
	ResourceID   int64
	Day          string
}

// kindBehaviour is the per-resource-kind function table: one pure function
// per varying behaviour rather than a type hierarchy.
type kindBehaviour struct {
	// batchKey groups entities notified under one subscribed resource.
	batchKey func(e Entity) BatchKey
	// filterID is the value Subscription.ResourceID filters against.
	filterID func(e Entity) int64
	// siteID is the value Subscription.ScopedSiteID filters against.
	siteID func(e Entity) int64
}

var kindTable = map[model.SubscriptionResource]kindBehaviour{
	model.ResourceSite: {
		batchKey: func(e Entity) BatchKey {
			s := e.(*model.Site)
			return BatchKey{AggregatorID: s.AggregatorID, SiteID: s.SiteID}
		},
		filterID: func(e Entity) int64 { return e.(*model.Site).SiteID },
		siteID:   func(e Entity) int64 { return e.(*model.Site).SiteID },
	},
	model.ResourceReading: {
		batchKey: func(e Entity) BatchKey {
			r := e.(*model.SiteReading)
			return BatchKey{
				AggregatorID: r.ReadingType.AggregatorID,
				SiteID:       r.ReadingType.SiteID,
				ResourceID:   r.SiteReadingTypeID,
			}
		},
		filterID: func(e Entity) int64 { return e.(*model.SiteReading).SiteReadingTypeID },
		siteID:   func(e Entity) int64 { return e.(*model.SiteReading).ReadingType.SiteID },
	},
	model.ResourceDynamicOperatingEnvelope: {
		batchKey: func(e Entity) BatchKey {
			d := e.(*model.DynamicOperatingEnvelope)
			return BatchKey{AggregatorID: d.Site.AggregatorID, SiteID: d.SiteID}
		},
		filterID: func(e Entity) int64 {
			return e.(*model.DynamicOperatingEnvelope).DynamicOperatingEnvelopeID
		},
		siteID: func(e Entity) int64 { return e.(*model.DynamicOperatingEnvelope).SiteID },
	},
	model.ResourceTariffGeneratedRate: {
		batchKey: func(e Entity) BatchKey {
			r := e.(*model.TariffGeneratedRate)
			return BatchKey{
				AggregatorID: r.Site.AggregatorID,
				TariffID:     r.TariffID,
				SiteID:       r.SiteID,
				Day:          r.StartTime.Format(batchKeyDayFormat),
			}
		},
		filterID: func(e Entity) int64 { return e.(*model.TariffGeneratedRate).TariffID },
		siteID:   func(e Entity) int64 { return e.(*model.TariffGeneratedRate).SiteID },
	},
	model.ResourceSiteDERAvailability: {
		batchKey: func(e Entity) BatchKey {
			a := e.(*model.SiteDERAvailability)
			return derBatchKey(a.SiteDER)
		},
		filterID: func(Entity) int64 { return PublicSiteDERID },
		siteID:   func(e Entity) int64 { return e.(*model.SiteDERAvailability).SiteDER.SiteID },
	},
	model.ResourceSiteDERRating: {
		batchKey: func(e Entity) BatchKey {
			r := e.(*model.SiteDERRating)
			return derBatchKey(r.SiteDER)
		},
		filterID: func(Entity) int64 { return PublicSiteDERID },
		siteID:   func(e Entity) int64 { return e.(*model.SiteDERRating).SiteDER.SiteID },
	},
	model.ResourceSiteDERSetting: {
		batchKey: func(e Entity) BatchKey {
			s := e.(*model.SiteDERSetting)
			return derBatchKey(s.SiteDER)
		},
		filterID: func(Entity) int64 { return PublicSiteDERID },
		siteID:   func(e Entity) int64 { return e.(*model.SiteDERSetting).SiteDER.SiteID },
	},
	model.ResourceSiteDERStatus: {
		batchKey: func(e Entity) BatchKey {
			s := e.(*model.SiteDERStatus)
			return derBatchKey(s.SiteDER)
		},
		filterID: func(Entity) int64 { return PublicSiteDERID },
		siteID:   func(e Entity) int64 { return e.(*model.SiteDERStatus).SiteDER.SiteID },
	},
}

func derBatchKey(der *model.SiteDER) BatchKey {
	return BatchKey{
		AggregatorID: der.Site.AggregatorID,
		SiteID:       der.SiteID,
		ResourceID:   PublicSiteDERID,
	}
}

func behaviourFor(resource model.SubscriptionResource) (kindBehaviour, error) {
	b, ok := kindTable[resource]
	if !ok {
		return kindBehaviour{}, fmt.Errorf("%w: %s", ErrUnsupportedResource, resource)
	}
	return b, nil
}

// BatchKeyFor computes the batch key of an entity of the given kind.
func BatchKeyFor(resource model.SubscriptionResource, e Entity) (BatchKey, error) {
	b, err := behaviourFor(resource)
	if err != nil {
		return BatchKey{}, err
	}
	return b.batchKey(e), nil
}

// IsDERResource reports whether the kind is one of the per-site DER
// singleton records. These are not list-capable on the wire.
func IsDERResource(resource model.SubscriptionResource) bool {
	switch resource {
	case model.ResourceSiteDERAvailability,
		model.ResourceSiteDERRating,
		model.ResourceSiteDERSetting,
		model.ResourceSiteDERStatus:
		return true
	default:
		return false
	}
}
