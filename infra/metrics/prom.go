package metrics

import (
	"strconv"

	coremetrics "github.com/gridpulse/csipd/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records notification engine events in Prometheus metrics.
type PromSink struct {
	notifications *prometheus.CounterVec
	attempts      *prometheus.CounterVec
	duration      prometheus.Histogram
}

// NewPromSink registers notification metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Total number of notification pages generated",
	}, []string{"resource"})
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transmit_attempts_total",
		Help: "Total number of notification delivery attempts",
	}, []string{"outcome", "code"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "transmit_duration_seconds",
		Help:    "Time spent delivering a notification to a subscriber",
		Buckets: prometheus.DefBuckets,
	})

	if err := reg.Register(notifications); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			notifications = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(attempts); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			attempts = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}

	return &PromSink{notifications: notifications, attempts: attempts, duration: duration}, nil
}

// RecordNotifications increments the page counter for a dispatch run.
func (s *PromSink) RecordNotifications(ev coremetrics.NotificationEvent) error {
	s.notifications.WithLabelValues(ev.Resource).Add(float64(ev.Notifications))
	return nil
}

// RecordTransmit counts one delivery attempt and observes its duration.
func (s *PromSink) RecordTransmit(ev coremetrics.TransmitEvent) error {
	s.attempts.WithLabelValues(ev.Outcome, strconv.Itoa(ev.HTTPStatus)).Inc()
	s.duration.Observe(ev.Duration.Seconds())
	return nil
}
