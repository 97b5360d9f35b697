package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
datasource:
  type: memory
simulation:
  digester_volume: 1600
logging:
  env: dev
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Datasource.Type != "memory" {
		t.Fatalf("datasource type = %q", cfg.Datasource.Type)
	}
	if cfg.Simulation.DigesterVolume != 1600 {
		t.Fatalf("digester volume = %v", cfg.Simulation.DigesterVolume)
	}
	// Unset fields keep the reference plant values, and the derived
	// fields follow the overrides.
	if cfg.Simulation.GeneratorMaxPower != 150 {
		t.Fatalf("generator max power = %v", cfg.Simulation.GeneratorMaxPower)
	}
	if cfg.Simulation.Derived.BiogasMaximumVolume != 640 {
		t.Fatalf("biogas maximum volume = %v", cfg.Simulation.Derived.BiogasMaximumVolume)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Env != "dev" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if cfg.MQTT.Enabled {
		t.Fatal("mqtt should default to disabled")
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "datasource": {"type": "influx", "influx": {"url": "http://localhost:8086", "org": "inasolar", "bucket": "history"}},
  "logging": {"level": "warn"}
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Datasource.Influx.URL != "http://localhost:8086" {
		t.Fatalf("influx url = %q", cfg.Datasource.Influx.URL)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
datasource:
  type: memory
`)
	t.Setenv("K_SIMULATION__DIGESTER_VOLUME", "2000")
	t.Setenv("K_LOGGING__LEVEL", "error")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Simulation.DigesterVolume != 2000 {
		t.Fatalf("digester volume = %v", cfg.Simulation.DigesterVolume)
	}
	if cfg.Simulation.Derived.BiogasMaximumVolume != 800 {
		t.Fatalf("biogas maximum volume = %v", cfg.Simulation.Derived.BiogasMaximumVolume)
	}
	if cfg.Logging.Level != "error" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	if _, err := Load(writeConfig(t, "config.toml", "x = 1")); err == nil {
		t.Fatal("expected an error for an unsupported extension")
	}
	if _, err := Load(writeConfig(t, "config.yaml", "logging: {level: verbose}\ndatasource: {type: memory}")); err == nil {
		t.Fatal("expected an error for an unknown log level")
	}
	if _, err := Load(writeConfig(t, "config.yaml", "datasource: {type: influx}")); err == nil {
		t.Fatal("expected an error for a missing influx url")
	}
	if _, err := Load(writeConfig(t, "config.yaml", "datasource: {type: carrier-pigeon}")); err == nil {
		t.Fatal("expected an error for an unknown datasource type")
	}
}
