package notify

import (
	"context"
	"time"

	"github.com/gridpulse/csipd/core/model"
)

// Store is the read-only persistence surface consumed by the notification
// engine. Implementations must load each entity with the parent
// relationships the batch keys depend on (reading type for readings, site
// for DOEs/rates, DER and site for DER records) and must match the change
// timestamp exactly.
type Store interface {
	SitesByChangedAt(ctx context.Context, ts time.Time) ([]*model.Site, error)
	ReadingsByChangedAt(ctx context.Context, ts time.Time) ([]*model.SiteReading, error)
	DoesByChangedAt(ctx context.Context, ts time.Time) ([]*model.DynamicOperatingEnvelope, error)
	RatesByChangedAt(ctx context.Context, ts time.Time) ([]*model.TariffGeneratedRate, error)
	DERAvailabilitiesByChangedAt(ctx context.Context, ts time.Time) ([]*model.SiteDERAvailability, error)
	DERRatingsByChangedAt(ctx context.Context, ts time.Time) ([]*model.SiteDERRating, error)
	DERSettingsByChangedAt(ctx context.Context, ts time.Time) ([]*model.SiteDERSetting, error)
	DERStatusesByChangedAt(ctx context.Context, ts time.Time) ([]*model.SiteDERStatus, error)

	SubscriptionsForResource(ctx context.Context, aggregatorID int64, resource model.SubscriptionResource) ([]*model.Subscription, error)
}

// TransmitLogger persists delivery attempts. Implementations are best
// effort; failures must never block delivery.
type TransmitLogger interface {
	AppendTransmitLog(ctx context.Context, rec model.TransmitLog) error
}

// AggregatorBatchedEntities is one dispatch run's view of every entity of a
// resource kind changed at a single instant, grouped by batch key. Built
// once per run and never mutated afterwards.
type AggregatorBatchedEntities struct {
	Timestamp  time.Time
	Resource   model.SubscriptionResource
	ByBatchKey map[BatchKey][]Entity
}

// Len is the total number of entities across all batch keys.
func (b *AggregatorBatchedEntities) Len() int {
	n := 0
	for _, entities := range b.ByBatchKey {
		n += len(entities)
	}
	return n
}

func newBatch(ts time.Time, resource model.SubscriptionResource, entities []Entity) (*AggregatorBatchedEntities, error) {
	behaviour, err := behaviourFor(resource)
	if err != nil {
		return nil, err
	}
	grouped := make(map[BatchKey][]Entity)
	for _, e := range entities {
		key := behaviour.batchKey(e)
		grouped[key] = append(grouped[key], e)
	}
	return &AggregatorBatchedEntities{Timestamp: ts, Resource: resource, ByBatchKey: grouped}, nil
}

func asEntities[T any](rows []T) []Entity {
	entities := make([]Entity, len(rows))
	for i, r := range rows {
		entities[i] = r
	}
	return entities
}

// FetchBatch loads every entity of resource changed at exactly ts and
// groups it by batch key. Read only; no writes are issued through store.
func FetchBatch(ctx context.Context, store Store, resource model.SubscriptionResource, ts time.Time) (*AggregatorBatchedEntities, error) {
	var entities []Entity
	switch resource {
	case model.ResourceSite:
		rows, err := store.SitesByChangedAt(ctx, ts)
		if err != nil {
			return nil, err
		}
		entities = asEntities(rows)
	case model.ResourceReading:
		rows, err := store.ReadingsByChangedAt(ctx, ts)
		if err != nil {
			return nil, err
		}
		entities = asEntities(rows)
	case model.ResourceDynamicOperatingEnvelope:
		rows, err := store.DoesByChangedAt(ctx, ts)
		if err != nil {
			return nil, err
		}
		entities = asEntities(rows)
	case model.ResourceTariffGeneratedRate:
		rows, err := store.RatesByChangedAt(ctx, ts)
		if err != nil {
			return nil, err
		}
		entities = asEntities(rows)
	case model.ResourceSiteDERAvailability:
		rows, err := store.DERAvailabilitiesByChangedAt(ctx, ts)
		if err != nil {
			return nil, err
		}
		entities = asEntities(rows)
	case model.ResourceSiteDERRating:
		rows, err := store.DERRatingsByChangedAt(ctx, ts)
		if err != nil {
			return nil, err
		}
		entities = asEntities(rows)
	case model.ResourceSiteDERSetting:
		rows, err := store.DERSettingsByChangedAt(ctx, ts)
		if err != nil {
			return nil, err
		}
		entities = asEntities(rows)
	case model.ResourceSiteDERStatus:
		rows, err := store.DERStatusesByChangedAt(ctx, ts)
		if err != nil {
			return nil, err
		}
		entities = asEntities(rows)
	default:
		return nil, behaviourErr(resource)
	}
	return newBatch(ts, resource, entities)
}

func behaviourErr(resource model.SubscriptionResource) error {
	_, err := behaviourFor(resource)
	return err
}
