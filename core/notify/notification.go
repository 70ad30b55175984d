package notify

import (
	"fmt"

	"github.com/gridpulse/csipd/core/model"
	"github.com/gridpulse/csipd/core/sep2"
)

func castSlice[T any](entities []Entity) []T {
	out := make([]T, len(entities))
	for i, e := range entities {
		out[i] = e.(T)
	}
	return out
}

// EntitiesToNotification maps one page of entities to the protocol's
// notification envelope, with all hrefs anchored at hrefPrefix.
func EntitiesToNotification(resource model.SubscriptionResource, sub *model.Subscription, batchKey BatchKey, hrefPrefix string, entities []Entity, prt sep2.PricingReadingType) (*sep2.Notification, error) {
	switch resource {
	case model.ResourceSite:
		return sep2.MapSitesToNotification(castSlice[*model.Site](entities), sub, hrefPrefix), nil

	case model.ResourceDynamicOperatingEnvelope:
		does := castSlice[*model.DynamicOperatingEnvelope](entities)
		return sep2.MapDoesToNotification(does, sub, hrefPrefix), nil

	case model.ResourceTariffGeneratedRate:
		if prt == 0 {
			return nil, fmt.Errorf("notify: rate notifications require a pricing reading type")
		}
		rates := castSlice[*model.TariffGeneratedRate](entities)
		return sep2.MapRatesToNotification(batchKey.TariffID, batchKey.Day, prt, rates, sub, hrefPrefix)

	case model.ResourceReading:
		readings := castSlice[*model.SiteReading](entities)
		return sep2.MapReadingsToNotification(batchKey.ResourceID, readings, sub, hrefPrefix), nil

	case model.ResourceSiteDERAvailability:
		av := castSlice[*model.SiteDERAvailability](entities)
		if len(av) == 0 {
			return nil, fmt.Errorf("notify: DER availability notifications require an entity")
		}
		return sep2.MapDERAvailabilityToNotification(batchKey.ResourceID, av[0], sub, hrefPrefix), nil

	case model.ResourceSiteDERRating:
		ratings := castSlice[*model.SiteDERRating](entities)
		if len(ratings) == 0 {
			return nil, fmt.Errorf("notify: DER rating notifications require an entity")
		}
		return sep2.MapDERRatingToNotification(batchKey.ResourceID, ratings[0], sub, hrefPrefix), nil

	case model.ResourceSiteDERSetting:
		settings := castSlice[*model.SiteDERSetting](entities)
		if len(settings) == 0 {
			return nil, fmt.Errorf("notify: DER setting notifications require an entity")
		}
		return sep2.MapDERSettingToNotification(batchKey.ResourceID, settings[0], sub, hrefPrefix), nil

	case model.ResourceSiteDERStatus:
		statuses := castSlice[*model.SiteDERStatus](entities)
		if len(statuses) == 0 {
			return nil, fmt.Errorf("notify: DER status notifications require an entity")
		}
		return sep2.MapDERStatusToNotification(batchKey.ResourceID, statuses[0], sub, hrefPrefix), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedResource, resource)
	}
}
