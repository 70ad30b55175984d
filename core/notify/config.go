package notify

import "fmt"

// Broker backends.
const (
	BrokerMemory = "memory"
	BrokerMQTT   = "mqtt"
)

// Config controls the notification engine.
type Config struct {
	// Enabled gates the whole subsystem. When false,
	// Manager.NotifyChangedEntities is a no-op returning false.
	Enabled bool `json:"enabled"`
	// Broker selects the task transport: "memory" or "mqtt".
	Broker string `json:"broker"`
	// HrefPrefix is prepended to every href in outgoing notifications.
	HrefPrefix string `json:"href_prefix"`
	// TransmitTimeoutSeconds bounds a single outbound POST.
	TransmitTimeoutSeconds int `json:"transmit_timeout_s"`
	// Workers sizes the in-memory broker's pool.
	Workers int `json:"workers"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Broker == "" {
		c.Broker = BrokerMemory
	}
	if c.TransmitTimeoutSeconds <= 0 {
		c.TransmitTimeoutSeconds = 30
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Broker != BrokerMemory && c.Broker != BrokerMQTT {
		return fmt.Errorf("unknown broker %s", c.Broker)
	}
	if c.TransmitTimeoutSeconds <= 0 {
		return fmt.Errorf("transmit timeout must be positive")
	}
	return nil
}
