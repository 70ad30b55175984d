package metrics

import "time"

// NotificationEvent is recorded once per dispatch run that produced pages.
type NotificationEvent struct {
	Resource      string
	Notifications int
}

// TransmitEvent is recorded once per delivery attempt.
type TransmitEvent struct {
	// Outcome is one of "done", "aborted", "retry" or "dropped".
	Outcome    string
	HTTPStatus int
	Attempt    int
	Duration   time.Duration
}

// Sink records notification engine events for observability purposes.
type Sink interface {
	RecordNotifications(ev NotificationEvent) error
	RecordTransmit(ev TransmitEvent) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordNotifications(NotificationEvent) error { return nil }
func (NopSink) RecordTransmit(TransmitEvent) error          { return nil }
