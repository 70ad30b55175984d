package model

import "time"

// Subscription is a remote client's standing request to receive webhook
// notifications for changes to one resource kind. Subscriptions are owned by
// exactly one aggregator and may be narrowed to a site, a single underlying
// resource, or a set of value conditions.
//
// Subscriptions are created and deleted by the protocol API; the
// notification engine only ever reads them.
type Subscription struct {
	SubscriptionID  int64
	AggregatorID    int64
	ResourceType    SubscriptionResource
	ResourceID      *int64 // nil subscribes to the whole resource list
	ScopedSiteID    *int64 // nil subscribes across all of the aggregator's sites
	NotificationURI string
	EntityLimit     int // max entities per notification page
	CreatedTime     time.Time
	ChangedTime     time.Time

	Conditions []SubscriptionCondition
}

// SubscriptionCondition narrows when its owning Subscription fires. The two
// thresholds define an inclusive "normal band"; a notification is only
// raised for values strictly outside it. A nil threshold leaves that side of
// the band unbounded. When a subscription carries several conditions, every
// one of them must be met.
type SubscriptionCondition struct {
	SubscriptionConditionID int64
	SubscriptionID          int64
	Attribute               ConditionAttribute
	LowerThreshold          *int64
	UpperThreshold          *int64
}

// TransmitLog records a single attempt to deliver a notification to a
// subscriber. Optimised for volume: only rudimentary metadata is kept.
type TransmitLog struct {
	TransmitLogID         int64
	SubscriptionID        int64
	TransmitTime          time.Time
	TransmitDurationMS    int64
	NotificationSizeBytes int
	Attempt               int
	HTTPStatusCode        int // -1 when the request never completed
}
