package metrics

import "fmt"

// Config defines settings for metrics sinks.
type Config struct {
	PrometheusEnabled bool `json:"prometheus_enabled"`
	PrometheusPort    int  `json:"prometheus_port"`
	LogEnabled        bool `json:"log_enabled"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PrometheusPort == 0 {
		c.PrometheusPort = 2112
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.PrometheusPort <= 0 || c.PrometheusPort > 65535 {
		return fmt.Errorf("invalid prometheus port %d", c.PrometheusPort)
	}
	return nil
}
