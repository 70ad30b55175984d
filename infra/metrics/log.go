package metrics

import (
	coremetrics "github.com/gridpulse/csipd/core/metrics"
	"github.com/gridpulse/csipd/infra/logger"
)

// LogSink writes notification engine events to the structured log, for
// operators who want delivery visibility without a scrape target.
type LogSink struct {
	log logger.Logger
}

// NewLogSink creates a LogSink writing to the given logger.
func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) RecordNotifications(ev coremetrics.NotificationEvent) error {
	s.log.Infof("produced %d notifications for %s", ev.Notifications, ev.Resource)
	return nil
}

func (s *LogSink) RecordTransmit(ev coremetrics.TransmitEvent) error {
	s.log.Debugw("notification transmit", map[string]any{
		"outcome":     ev.Outcome,
		"status":      ev.HTTPStatus,
		"attempt":     ev.Attempt,
		"duration_ms": ev.Duration.Milliseconds(),
	})
	return nil
}
