package notify

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpulse/csipd/core/logger"
	"github.com/gridpulse/csipd/core/model"
)

func newTestChecker(t *testing.T, store Store, broker *captureBroker) *Checker {
	t.Helper()
	checker, err := NewChecker(store, broker, Config{Enabled: true, HrefPrefix: "/api"}, nil, logger.Nop{})
	require.NoError(t, err)
	return checker
}

func TestCheckUpsertPagesAndEnqueuesTransmits(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.does[ts] = []*model.DynamicOperatingEnvelope{
		testDoe(1, 1, 1),
		testDoe(2, 1, 1),
		testDoe(3, 1, 1),
		testDoe(4, 3, 2),
	}
	// Aggregator 1 subscribes unscoped with a page limit of 2; aggregator 2
	// has no subscription, so its site 3 envelope must notify nobody.
	store.subs[1] = []*model.Subscription{{
		SubscriptionID:  11,
		AggregatorID:    1,
		ResourceType:    model.ResourceDynamicOperatingEnvelope,
		NotificationURI: "https://agg-one.example/webhook",
		EntityLimit:     2,
	}}

	broker := &captureBroker{}
	checker := newTestChecker(t, store, broker)
	require.NoError(t, checker.CheckUpsert(context.Background(), model.ResourceDynamicOperatingEnvelope, ts))

	tasks := broker.tasks(TaskTransmit)
	require.Len(t, tasks, 2, "3 matched envelopes with limit 2 make 2 pages")

	var first, second TransmitTask
	require.NoError(t, json.Unmarshal(tasks[0].Payload, &first))
	require.NoError(t, json.Unmarshal(tasks[1].Payload, &second))

	assert.Equal(t, "https://agg-one.example/webhook", first.RemoteURI)
	assert.Equal(t, int64(11), first.SubscriptionID)
	assert.Equal(t, 0, first.Attempt)
	assert.NotEmpty(t, first.NotificationID)
	assert.NotEqual(t, first.NotificationID, second.NotificationID)
	// Unscoped subscriptions live under the virtual end device, and their
	// notifications point back at it rather than at the changed site.
	assert.Equal(t, "/api/edev/0/sub/11", first.SubscriptionHref)
	assert.Contains(t, first.Content, "<Notification")
	assert.Contains(t, first.Content, "DERControlList")
	assert.Contains(t, first.Content, "<subscribedResource>/api/edev/0/derp/doe/derc</subscribedResource>")
}

func TestCheckUpsertScopedSubscriptionHref(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.does[ts] = []*model.DynamicOperatingEnvelope{testDoe(1, 7, 1)}
	store.subs[1] = []*model.Subscription{{
		SubscriptionID:  5,
		AggregatorID:    1,
		ResourceType:    model.ResourceDynamicOperatingEnvelope,
		ScopedSiteID:    int64Ptr(7),
		NotificationURI: "https://agg-one.example/webhook",
		EntityLimit:     10,
	}}

	broker := &captureBroker{}
	checker := newTestChecker(t, store, broker)
	require.NoError(t, checker.CheckUpsert(context.Background(), model.ResourceDynamicOperatingEnvelope, ts))

	tasks := broker.tasks(TaskTransmit)
	require.Len(t, tasks, 1)
	var task TransmitTask
	require.NoError(t, json.Unmarshal(tasks[0].Payload, &task))
	assert.Equal(t, "/api/edev/7/sub/5", task.SubscriptionHref)
	assert.Contains(t, task.Content, "<subscribedResource>/api/edev/7/derp/doe/derc</subscribedResource>")
}

func TestCheckUpsertNoChangedEntities(t *testing.T) {
	broker := &captureBroker{}
	checker := newTestChecker(t, newFakeStore(), broker)
	require.NoError(t, checker.CheckUpsert(context.Background(), model.ResourceSite, time.Now().UTC()))
	assert.Empty(t, broker.tasks(TaskTransmit))
}

func TestCheckUpsertRatePagesPerPriceStream(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	site := testSite(1, 1)
	store := newFakeStore()
	store.rates[ts] = []*model.TariffGeneratedRate{{
		TariffGeneratedRateID: 1,
		TariffID:              3,
		SiteID:                1,
		StartTime:             time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		ImportActivePrice:     11000,
		Site:                  site,
	}}
	store.subs[1] = []*model.Subscription{{
		SubscriptionID:  2,
		AggregatorID:    1,
		ResourceType:    model.ResourceTariffGeneratedRate,
		NotificationURI: "https://agg-one.example/webhook",
		EntityLimit:     10,
	}}

	broker := &captureBroker{}
	checker := newTestChecker(t, store, broker)
	require.NoError(t, checker.CheckUpsert(context.Background(), model.ResourceTariffGeneratedRate, ts))

	tasks := broker.tasks(TaskTransmit)
	require.Len(t, tasks, 4, "one page per price stream")

	streams := map[string]bool{}
	for _, raw := range tasks {
		var task TransmitTask
		require.NoError(t, json.Unmarshal(raw.Payload, &task))
		for _, stream := range []string{"1", "2", "3", "4"} {
			if strings.Contains(task.Content, "/rc/2024-05-01/"+stream+"/tti") {
				streams[stream] = true
			}
		}
	}
	assert.Len(t, streams, 4, "each page addresses a distinct price stream")
}

func TestHandleCheckRejectsMalformedPayloads(t *testing.T) {
	broker := &captureBroker{}
	checker := newTestChecker(t, newFakeStore(), broker)

	checker.HandleCheck(context.Background(), []byte("{not json"))
	checker.HandleCheck(context.Background(), []byte(`{"resource":"martian","timestamp_ms":0}`))
	assert.Empty(t, broker.enqueued)
}
