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

	"github.com/inasolar/microgrid/core/metrics"
	"github.com/inasolar/microgrid/core/simulation"
	"github.com/inasolar/microgrid/infra/datasource"
	"github.com/inasolar/microgrid/infra/mqtt"
)

type Config struct {
	Datasource DatasourceConfig  `json:"datasource"`
	Simulation simulation.Config `json:"simulation"`
	MQTT       MQTTConfig        `json:"mqtt"`
	Metrics    metrics.Config    `json:"metrics"`
	Logging    LoggingConfig     `json:"logging"`
}

// MQTTConfig wraps the broker settings with an enable switch: the
// simulator is usable without a broker.
type MQTTConfig struct {
	Enabled bool `json:"enabled"`
	mqtt.Config
}

// DatasourceConfig selects where historical series are read from.
type DatasourceConfig struct {
	// Type is "memory" or "influx".
	Type   string                  `json:"type"`
	Influx datasource.InfluxConfig `json:"influx"`
}

func (c *DatasourceConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "influx"
	}
}

func (c DatasourceConfig) Validate() error {
	switch c.Type {
	case "memory":
		return nil
	case "influx":
		if c.Influx.URL == "" {
			return fmt.Errorf("datasource.influx.url is required")
		}
		return nil
	}
	return fmt.Errorf("unknown datasource type %q", c.Type)
}

// LoggingConfig controls the zerolog output.
type LoggingConfig struct {
	// Env selects the output format: "dev" for console, anything else
	// for JSON.
	Env string `json:"env"`
	// Level is the minimum level: debug, info, warn or error.
	Level string `json:"level"`
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("unknown log level %q", c.Level)
}

// Load reads the configuration file and applies environment overrides
// with the K_ prefix (K_SIMULATION__DIGESTER_VOLUME=1400 overrides
// simulation.digester_volume).
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
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	// The reference plant is the baseline; the file and the environment
	// override individual fields.
	cfg := Config{Simulation: simulation.DefaultConfig()}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Datasource.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.Simulation.SetDefaults()
	cfg.Simulation.Recompute()
	if err := cfg.Datasource.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Simulation.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
