package metrics

import coremetrics "github.com/gridpulse/csipd/core/metrics"

// MultiSink fanouts notification events to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordNotifications forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordNotifications(ev coremetrics.NotificationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordNotifications(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordTransmit forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordTransmit(ev coremetrics.TransmitEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordTransmit(ev); err != nil {
			return err
		}
	}
	return nil
}
