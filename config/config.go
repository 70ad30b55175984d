package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gridpulse/csipd/core/metrics"
	"github.com/gridpulse/csipd/core/notify"
	"github.com/gridpulse/csipd/infra/store"
	"github.com/gridpulse/csipd/infra/taskq"
)

type Config struct {
	Notify  notify.Config  `json:"notify"`
	MQTT    taskq.Config   `json:"mqtt"`
	Store   store.Config   `json:"store"`
	Metrics metrics.Config `json:"metrics"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("CSIPD_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "csipd_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Notify.SetDefaults()
	cfg.Store.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.Notify.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return nil, err
	}
	if cfg.Notify.Broker == notify.BrokerMQTT {
		cfg.MQTT.SetDefaults()
		if err := cfg.MQTT.Validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}
