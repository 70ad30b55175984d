package taskq

import (
	"context"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/gridpulse/csipd/core/logger"
	coretaskq "github.com/gridpulse/csipd/internal/taskq"
)

// pahoClient is the subset of the Paho API the broker needs. The indirection
// exists so tests can inject a fake client.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// MQTTBroker distributes tasks over an MQTT broker so several processes can
// share the work queue. Each task name maps to the topic
// "<prefix>/tasks/<name>"; payloads travel as-is.
type MQTTBroker struct {
	cli pahoClient
	cfg Config
	log logger.Logger

	mu       sync.Mutex
	handlers map[string]coretaskq.Handler
	timers   map[*time.Timer]struct{}
	started  bool
	closed   bool
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewMQTTBroker connects to the configured MQTT broker. Handlers registered
// with Subscribe are attached to their topics when Start is called.
func NewMQTTBroker(cfg Config, log logger.Logger) (*MQTTBroker, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop{}
	}

	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	b := &MQTTBroker{
		cfg:      cfg,
		log:      log,
		handlers: make(map[string]coretaskq.Handler),
		timers:   make(map[*time.Timer]struct{}),
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
		b.mu.Lock()
		started := b.started
		b.mu.Unlock()
		if started {
			b.attachHandlers()
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("MQTT connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	b.cli = cli
	return b, nil
}

func (b *MQTTBroker) topic(name string) string {
	return b.cfg.TopicPrefix + "/tasks/" + name
}

// Subscribe registers the handler for a task name. Must be called before
// Start.
func (b *MQTTBroker) Subscribe(name string, h coretaskq.Handler) {
	b.mu.Lock()
	b.handlers[name] = h
	b.mu.Unlock()
}

// Enqueue publishes the task payload on the task's topic.
func (b *MQTTBroker) Enqueue(_ context.Context, t coretaskq.Task) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return coretaskq.ErrBrokerClosed
	}
	token := b.cli.Publish(b.topic(t.Name), *b.cfg.QoS, false, t.Payload)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// EnqueueAfter schedules t for publication after d. The delay is tracked by
// a timer local to this process; a crash before it fires loses the task.
func (b *MQTTBroker) EnqueueAfter(ctx context.Context, d time.Duration, t coretaskq.Task) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return coretaskq.ErrBrokerClosed
	}
	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		b.mu.Lock()
		delete(b.timers, timer)
		b.mu.Unlock()
		if err := b.Enqueue(ctx, t); err != nil {
			b.log.Errorf("deferred enqueue of %s failed: %v", t.Name, err)
		}
	})
	b.timers[timer] = struct{}{}
	b.mu.Unlock()
	return nil
}

// Start attaches the registered handlers to their topics.
func (b *MQTTBroker) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started || b.closed {
		b.mu.Unlock()
		return coretaskq.ErrBrokerClosed
	}
	b.started = true
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.mu.Unlock()

	b.attachHandlers()
	return nil
}

func (b *MQTTBroker) attachHandlers() {
	b.mu.Lock()
	handlers := make(map[string]coretaskq.Handler, len(b.handlers))
	for name, h := range b.handlers {
		handlers[name] = h
	}
	ctx := b.ctx
	b.mu.Unlock()

	for name, h := range handlers {
		handler := h
		token := b.cli.Subscribe(b.topic(name), *b.cfg.QoS, func(_ paho.Client, msg paho.Message) {
			handler(ctx, msg.Payload())
		})
		if token.Wait() && token.Error() != nil {
			b.log.Errorf("subscribe %s: %v", b.topic(name), token.Error())
		}
	}
}

// Close stops pending timers and disconnects from the broker.
func (b *MQTTBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for timer := range b.timers {
		timer.Stop()
	}
	b.timers = map[*time.Timer]struct{}{}
	cancel := b.cancel
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	b.cli.Disconnect(250)
	return nil
}
