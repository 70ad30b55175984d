package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gridpulse/csipd/config"
	coremetrics "github.com/gridpulse/csipd/core/metrics"
	"github.com/gridpulse/csipd/core/notify"
	"github.com/gridpulse/csipd/infra/logger"
	"github.com/gridpulse/csipd/infra/metrics"
	"github.com/gridpulse/csipd/infra/store"
	mqtttaskq "github.com/gridpulse/csipd/infra/taskq"
	"github.com/gridpulse/csipd/internal/taskq"
)

// Service wires the store, the task broker and the notification engine.
type Service struct {
	Manager *notify.Manager
	Store   *store.SQLiteStore

	broker      taskq.Broker
	log         logger.Logger
	promEnabled bool
	promPort    int
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	st, err := store.Open(cfg.Store, logger.New("store"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	sinks := make([]coremetrics.Sink, 0, 2)
	if cfg.Metrics.PrometheusEnabled {
		prom, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, prom)
	}
	if cfg.Metrics.LogEnabled {
		sinks = append(sinks, metrics.NewLogSink(logger.New("metrics")))
	}
	var sink coremetrics.Sink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	var broker taskq.Broker
	switch cfg.Notify.Broker {
	case notify.BrokerMQTT:
		broker, err = mqtttaskq.NewMQTTBroker(cfg.MQTT, logger.New("mqtt"))
		if err != nil {
			return nil, fmt.Errorf("mqtt broker: %w", err)
		}
	default:
		broker = taskq.NewMemoryBroker(cfg.Notify.Workers, logger.New("taskq"))
	}

	checker, err := notify.NewChecker(st, broker, cfg.Notify, sink, logger.New("check"))
	if err != nil {
		return nil, fmt.Errorf("checker: %w", err)
	}
	timeout := time.Duration(cfg.Notify.TransmitTimeoutSeconds) * time.Second
	transmitter, err := notify.NewTransmitter(broker, st, sink, logger.New("transmit"), timeout)
	if err != nil {
		return nil, fmt.Errorf("transmitter: %w", err)
	}
	broker.Subscribe(notify.TaskCheck, checker.HandleCheck)
	broker.Subscribe(notify.TaskTransmit, transmitter.HandleTransmit)

	manager := notify.NewManager(broker, cfg.Notify.Enabled, logg)
	return &Service{
		Manager:     manager,
		Store:       st,
		broker:      broker,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// Run starts the broker workers and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.broker.Start(ctx); err != nil {
		return fmt.Errorf("start broker: %w", err)
	}
	if s.promEnabled {
		go func() {
			addr := fmt.Sprintf(":%d", s.promPort)
			if err := metrics.StartPromServer(ctx, addr, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	<-ctx.Done()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if err := s.broker.Close(); err != nil {
		return err
	}
	return s.Store.Close()
}
