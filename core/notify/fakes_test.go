package notify

import (
	"context"
	"sync"
	"time"

	"github.com/gridpulse/csipd/core/model"
	"github.com/gridpulse/csipd/internal/taskq"
)

// fakeStore serves canned rows keyed by the exact change timestamp.
type fakeStore struct {
	sites    map[time.Time][]*model.Site
	readings map[time.Time][]*model.SiteReading
	does     map[time.Time][]*model.DynamicOperatingEnvelope
	rates    map[time.Time][]*model.TariffGeneratedRate
	statuses map[time.Time][]*model.SiteDERStatus

	subs map[int64][]*model.Subscription

	mu          sync.Mutex
	transmitLog []model.TransmitLog
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sites:    map[time.Time][]*model.Site{},
		readings: map[time.Time][]*model.SiteReading{},
		does:     map[time.Time][]*model.DynamicOperatingEnvelope{},
		rates:    map[time.Time][]*model.TariffGeneratedRate{},
		statuses: map[time.Time][]*model.SiteDERStatus{},
		subs:     map[int64][]*model.Subscription{},
	}
}

func (f *fakeStore) SitesByChangedAt(_ context.Context, ts time.Time) ([]*model.Site, error) {
	return f.sites[ts], nil
}

func (f *fakeStore) ReadingsByChangedAt(_ context.Context, ts time.Time) ([]*model.SiteReading, error) {
	return f.readings[ts], nil
}

func (f *fakeStore) DoesByChangedAt(_ context.Context, ts time.Time) ([]*model.DynamicOperatingEnvelope, error) {
	return f.does[ts], nil
}

func (f *fakeStore) RatesByChangedAt(_ context.Context, ts time.Time) ([]*model.TariffGeneratedRate, error) {
	return f.rates[ts], nil
}

func (f *fakeStore) DERAvailabilitiesByChangedAt(context.Context, time.Time) ([]*model.SiteDERAvailability, error) {
	return nil, nil
}

func (f *fakeStore) DERRatingsByChangedAt(context.Context, time.Time) ([]*model.SiteDERRating, error) {
	return nil, nil
}

func (f *fakeStore) DERSettingsByChangedAt(context.Context, time.Time) ([]*model.SiteDERSetting, error) {
	return nil, nil
}

func (f *fakeStore) DERStatusesByChangedAt(_ context.Context, ts time.Time) ([]*model.SiteDERStatus, error) {
	return f.statuses[ts], nil
}

func (f *fakeStore) SubscriptionsForResource(_ context.Context, aggregatorID int64, resource model.SubscriptionResource) ([]*model.Subscription, error) {
	var out []*model.Subscription
	for _, sub := range f.subs[aggregatorID] {
		if sub.ResourceType == resource {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (f *fakeStore) AppendTransmitLog(_ context.Context, rec model.TransmitLog) error {
	f.mu.Lock()
	f.transmitLog = append(f.transmitLog, rec)
	f.mu.Unlock()
	return nil
}

type delayedTask struct {
	delay time.Duration
	task  taskq.Task
}

// captureBroker records enqueued tasks instead of executing them.
type captureBroker struct {
	mu       sync.Mutex
	enqueued []taskq.Task
	delayed  []delayedTask
}

func (b *captureBroker) Enqueue(_ context.Context, t taskq.Task) error {
	b.mu.Lock()
	b.enqueued = append(b.enqueued, t)
	b.mu.Unlock()
	return nil
}

func (b *captureBroker) EnqueueAfter(_ context.Context, d time.Duration, t taskq.Task) error {
	b.mu.Lock()
	b.delayed = append(b.delayed, delayedTask{delay: d, task: t})
	b.mu.Unlock()
	return nil
}

func (b *captureBroker) Subscribe(string, taskq.Handler) {}
func (b *captureBroker) Start(context.Context) error     { return nil }
func (b *captureBroker) Close() error                    { return nil }

func (b *captureBroker) tasks(name string) []taskq.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []taskq.Task
	for _, t := range b.enqueued {
		if t.Name == name {
			out = append(out, t)
		}
	}
	return out
}
