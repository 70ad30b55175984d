package store

import "fmt"

// Config holds SQLite storage settings.
type Config struct {
	// Path is the database file path. ":memory:" keeps everything in RAM.
	Path string `json:"path"`
}

// SetDefaults fills unset fields with defaults.
func (c *Config) SetDefaults() {
	if c.Path == "" {
		c.Path = "csipd.db"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("store: path must not be empty")
	}
	return nil
}
