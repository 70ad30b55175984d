package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gridpulse/csipd/core/logger"
	"github.com/gridpulse/csipd/core/metrics"
	"github.com/gridpulse/csipd/core/model"
	"github.com/gridpulse/csipd/core/sep2"
	"github.com/gridpulse/csipd/internal/taskq"
)

// Task names routed through the broker.
const (
	TaskCheck    = "notify.check"
	TaskTransmit = "notify.transmit"
)

// CheckTask asks the checker to inspect one resource kind for rows changed
// at one exact instant.
type CheckTask struct {
	Resource    string `json:"resource"`
	TimestampMS int64  `json:"timestamp_ms"`
}

// Checker is the dispatch orchestrator: it fetches the changed-entity batch
// for a timestamp, matches it against every candidate subscription and
// enqueues one transmit task per notification page.
type Checker struct {
	store   Store
	broker  taskq.Broker
	cfg     Config
	metrics metrics.Sink
	log     logger.Logger
}

// NewChecker creates a Checker.
func NewChecker(store Store, broker taskq.Broker, cfg Config, sink metrics.Sink, log logger.Logger) (*Checker, error) {
	if store == nil || broker == nil || log == nil {
		return nil, fmt.Errorf("notify: nil parameter provided to NewChecker")
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	cfg.SetDefaults()
	return &Checker{store: store, broker: broker, cfg: cfg, metrics: sink, log: log}, nil
}

// HandleCheck is the taskq entry point for TaskCheck payloads.
func (c *Checker) HandleCheck(ctx context.Context, payload []byte) {
	var task CheckTask
	if err := json.Unmarshal(payload, &task); err != nil {
		c.log.Errorf("malformed check task: %v", err)
		return
	}
	resource, err := model.ParseSubscriptionResource(task.Resource)
	if err != nil {
		c.log.Errorf("check task: %v", err)
		return
	}
	ts := time.UnixMilli(task.TimestampMS).UTC()
	if err := c.CheckUpsert(ctx, resource, ts); err != nil {
		c.log.Errorf("check for %s at %s failed: %v", resource, ts, err)
	}
}

// CheckUpsert runs one dispatch: every entity of resource changed at
// exactly ts is matched against the owning aggregator's subscriptions, and
// each resulting page is serialized and enqueued for delivery. All reads
// are on a read-only store; nothing here commits anything.
func (c *Checker) CheckUpsert(ctx context.Context, resource model.SubscriptionResource, ts time.Time) error {
	batch, err := FetchBatch(ctx, c.store, resource, ts)
	if err != nil {
		return fmt.Errorf("fetch batch: %w", err)
	}
	if batch.Len() == 0 {
		c.log.Debugf("no %s entities changed at %s", resource, ts)
		return nil
	}

	// Subscriptions are cached per aggregator for this run only, so a
	// dispatch never observes data staler than its own start.
	subsCache := make(map[int64][]*model.Subscription)
	var notifications []NotificationEntities

	for batchKey, entities := range batch.ByBatchKey {
		subs, ok := subsCache[batchKey.AggregatorID]
		if !ok {
			loaded, err := c.store.SubscriptionsForResource(ctx, batchKey.AggregatorID, resource)
			if err != nil {
				return fmt.Errorf("load subscriptions for aggregator %d: %w", batchKey.AggregatorID, err)
			}
			subs = loaded
			subsCache[batchKey.AggregatorID] = subs
		}

		for _, sub := range subs {
			matched, err := EntitiesServicedBySubscription(sub, resource, entities)
			if err != nil {
				return err
			}
			if len(matched) == 0 {
				continue
			}
			limit := ClampEntityLimit(sub.EntityLimit)
			notifications = append(notifications, EntityPages(resource, sub, batchKey, limit, matched)...)
		}
	}

	c.log.Infof("check for %s at %s generated %d notifications", resource, ts, len(notifications))
	if err := c.metrics.RecordNotifications(metrics.NotificationEvent{
		Resource:      resource.String(),
		Notifications: len(notifications),
	}); err != nil {
		c.log.Warnf("record notifications metric: %v", err)
	}

	for _, n := range notifications {
		envelope, err := EntitiesToNotification(resource, n.Subscription, n.BatchKey, c.cfg.HrefPrefix, n.Entities, n.PricingReadingType)
		if err != nil {
			c.log.Errorf("map notification %s: %v", n.NotificationID, err)
			continue
		}
		content, err := envelope.XMLString()
		if err != nil {
			c.log.Errorf("serialize notification %s: %v", n.NotificationID, err)
			continue
		}

		transmit := TransmitTask{
			RemoteURI:        n.Subscription.NotificationURI,
			Content:          content,
			SubscriptionHref: sep2.SubscriptionHref(c.cfg.HrefPrefix, sep2.DisplaySiteID(n.Subscription), n.Subscription.SubscriptionID),
			SubscriptionID:   n.Subscription.SubscriptionID,
			NotificationID:   n.NotificationID,
			Attempt:          0,
		}
		payload, err := json.Marshal(transmit)
		if err != nil {
			c.log.Errorf("encode transmit task %s: %v", n.NotificationID, err)
			continue
		}
		// Enqueue failures are logged and swallowed: delivery is
		// strictly downstream of the mutation that triggered it.
		if err := c.broker.Enqueue(ctx, taskq.Task{Name: TaskTransmit, Payload: payload}); err != nil {
			c.log.Errorf("enqueue transmission %s to %s: %v", n.NotificationID, transmit.RemoteURI, err)
		}
	}
	return nil
}
