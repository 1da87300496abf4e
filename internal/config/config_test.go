package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crowdmon.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PollInterval() != DefaultPollInterval {
		t.Fatalf("expected default poll interval, got %s", cfg.PollInterval())
	}
	if cfg.SimulationInterval() != 10*time.Second {
		t.Fatalf("expected 10s simulation interval, got %s", cfg.SimulationInterval())
	}
	if cfg.TimeRefreshInterval() != 30*time.Second {
		t.Fatalf("expected 30s time refresh, got %s", cfg.TimeRefreshInterval())
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("validate defaults: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `logging:
  level: debug
  format: text
device:
  poll_interval: 500ms
  request_timeout: 250ms
  status_expression: 'active >= 3 ? "RED" : "GREEN"'
simulation:
  interval: 3s
  source: pseudo
  seed: 7
  weights:
    green: 0.5
    yellow: 0.3
    red: 0.2
  activation:
    red:
      ir1: 0.9
dashboard:
  time_refresh: 1m
  listen: ":9000"
storage:
  path: /tmp/state.yaml
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PollInterval() != 500*time.Millisecond {
		t.Fatalf("unexpected poll interval %s", cfg.PollInterval())
	}
	if cfg.RequestTimeout() != 250*time.Millisecond {
		t.Fatalf("unexpected request timeout %s", cfg.RequestTimeout())
	}
	if cfg.Simulation.Seed == nil || *cfg.Simulation.Seed != 7 {
		t.Fatalf("unexpected seed %v", cfg.Simulation.Seed)
	}
	if cfg.Simulation.Weights == nil || cfg.Simulation.Weights.Red != 0.2 {
		t.Fatalf("unexpected weights %+v", cfg.Simulation.Weights)
	}
	if cfg.Simulation.Activation["red"]["ir1"] != 0.9 {
		t.Fatalf("unexpected activation %+v", cfg.Simulation.Activation)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected logging level debug, got %s", cfg.Logging.Level)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, "device:\n  poll_interval: soon\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected duration parse error")
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"negative interval":   "device:\n  poll_interval: -1s\n",
		"probability above 1": "simulation:\n  activation:\n    green:\n      ir1: 1.5\n",
		"unknown status":      "simulation:\n  activation:\n    blue:\n      ir1: 0.5\n",
		"unknown source":      "simulation:\n  source: dice\n",
		"bad log format":      "logging:\n  format: xml\n",
		"loki without url":    "logging:\n  loki:\n    enabled: true\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, content))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if err := Validate(cfg); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestValidateNil(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestExampleConfigIsValid(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "crowdmon.example.yaml"))
	if err != nil {
		t.Fatalf("load example: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("validate example: %v", err)
	}
	if cfg.RequestTimeout() != 1500*time.Millisecond {
		t.Fatalf("expected 1500ms request timeout, got %s", cfg.RequestTimeout())
	}
	if !cfg.Telemetry.Enabled {
		t.Fatalf("expected telemetry to be enabled")
	}
}
