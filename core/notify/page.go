package notify

import (
	"github.com/google/uuid"

	"github.com/gridpulse/csipd/core/model"
	"github.com/gridpulse/csipd/core/sep2"
)

// MaxNotificationPageSize caps a subscription's entity limit. Larger values
// requested by a subscriber are clamped down to this.
const MaxNotificationPageSize = 100

// NotificationEntities is one outgoing message: a page of entities bound to
// a subscription, with a fresh notification id for receiver side dedup of
// retried deliveries. PricingReadingType is only set for rate pages.
type NotificationEntities struct {
	Entities           []Entity
	Subscription       *model.Subscription
	BatchKey           BatchKey
	NotificationID     string
	PricingReadingType sep2.PricingReadingType
}

// ClampEntityLimit normalises a subscription's entity limit into
// [1, MaxNotificationPageSize].
func ClampEntityLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxNotificationPageSize {
		return MaxNotificationPageSize
	}
	return limit
}

// EntityPages splits entities into the pages that will each become one
// notification.
//
// Rate resources multiply: every page is replicated once per supported
// price stream because a stored rate row represents four independent
// protocol price series. DER singleton resources are not list-capable on
// the wire, so each entity becomes its own page regardless of pageSize.
func EntityPages(resource model.SubscriptionResource, sub *model.Subscription, batchKey BatchKey, pageSize int, entities []Entity) []NotificationEntities {
	page := func(chunk []Entity, prt sep2.PricingReadingType) NotificationEntities {
		return NotificationEntities{
			Entities:           chunk,
			Subscription:       sub,
			BatchKey:           batchKey,
			NotificationID:     uuid.NewString(),
			PricingReadingType: prt,
		}
	}

	switch {
	case resource == model.ResourceTariffGeneratedRate:
		var pages []NotificationEntities
		for _, prt := range sep2.AllPricingReadingTypes {
			for _, chunk := range chunked(entities, pageSize) {
				pages = append(pages, page(chunk, prt))
			}
		}
		return pages
	case IsDERResource(resource):
		pages := make([]NotificationEntities, 0, len(entities))
		for _, e := range entities {
			pages = append(pages, page([]Entity{e}, 0))
		}
		return pages
	default:
		var pages []NotificationEntities
		for _, chunk := range chunked(entities, pageSize) {
			pages = append(pages, page(chunk, 0))
		}
		return pages
	}
}

// chunked splits entities into consecutive pieces of at most size elements.
func chunked(entities []Entity, size int) [][]Entity {
	if size < 1 {
		size = 1
	}
	var chunks [][]Entity
	for start := 0; start < len(entities); start += size {
		end := start + size
		if end > len(entities) {
			end = len(entities)
		}
		chunks = append(chunks, entities[start:end])
	}
	return chunks
}
