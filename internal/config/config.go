package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support YAML unmarshalling from strings.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses duration strings like "5s" or "1m".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return fmt.Errorf("duration value node is nil")
	}
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decode duration: %w", err)
	}
	if raw == "" {
		d.Duration = 0
		return nil
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = dur
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// IsZero lets omitempty drop unset durations.
func (d Duration) IsZero() bool {
	return d.Duration == 0
}

// Default intervals.
const (
	DefaultPollInterval        = 2 * time.Second
	DefaultRequestTimeout      = 1500 * time.Millisecond
	DefaultSimulationInterval  = 10 * time.Second
	DefaultTimeRefreshInterval = 30 * time.Second
)

// LokiConfig configures optional Loki integration for logging.
type LokiConfig struct {
	Enabled bool              `yaml:"enabled,omitempty"`
	URL     string            `yaml:"url,omitempty"`
	Labels  map[string]string `yaml:"labels,omitempty"`
}

// LoggingConfig encapsulates runtime logging options.
type LoggingConfig struct {
	Level  string     `yaml:"level,omitempty"`
	Format string     `yaml:"format,omitempty"`
	Loki   LokiConfig `yaml:"loki,omitempty"`
}

// TelemetryConfig selects the metrics backend.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	Provider string `yaml:"provider,omitempty"`
}

// DeviceConfig controls how the crowd detector is polled.
type DeviceConfig struct {
	PollInterval   Duration `yaml:"poll_interval,omitempty"`
	RequestTimeout Duration `yaml:"request_timeout,omitempty"`
	// StatusExpression derives a status from the sensor flags when the device
	// reports an empty one. Disabled when blank.
	StatusExpression string `yaml:"status_expression,omitempty"`
}

// StatusWeights are the draw probabilities of the simulated statuses.
type StatusWeights struct {
	Green  float64 `yaml:"green"`
	Yellow float64 `yaml:"yellow"`
	Red    float64 `yaml:"red"`
}

// SimulationConfig drives the simulated compartments.
type SimulationConfig struct {
	Interval Duration       `yaml:"interval,omitempty"`
	Source   string         `yaml:"source,omitempty"`
	Seed     *int64         `yaml:"seed,omitempty"`
	Weights  *StatusWeights `yaml:"weights,omitempty"`
	// Activation maps a lowercase status to per sensor activation probabilities.
	Activation map[string]map[string]float64 `yaml:"activation,omitempty"`
}

// DashboardConfig holds presentation settings.
type DashboardConfig struct {
	TimeRefresh Duration `yaml:"time_refresh,omitempty"`
	Listen      string   `yaml:"listen,omitempty"`
}

// StorageConfig locates the durable key-value file.
type StorageConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Config is the root configuration structure for the service.
type Config struct {
	HotReload  bool             `yaml:"hot_reload,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
	Telemetry  TelemetryConfig  `yaml:"telemetry,omitempty"`
	Device     DeviceConfig     `yaml:"device,omitempty"`
	Simulation SimulationConfig `yaml:"simulation,omitempty"`
	Dashboard  DashboardConfig  `yaml:"dashboard,omitempty"`
	Storage    StorageConfig    `yaml:"storage,omitempty"`
}

// Load reads and decodes the configuration file from disk. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path must not be empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// PollInterval returns the device polling period.
func (c *Config) PollInterval() time.Duration {
	if c == nil || c.Device.PollInterval.Duration <= 0 {
		return DefaultPollInterval
	}
	return c.Device.PollInterval.Duration
}

// RequestTimeout returns the per request deadline of a poll.
func (c *Config) RequestTimeout() time.Duration {
	if c == nil || c.Device.RequestTimeout.Duration <= 0 {
		return DefaultRequestTimeout
	}
	return c.Device.RequestTimeout.Duration
}

// SimulationInterval returns the simulator period.
func (c *Config) SimulationInterval() time.Duration {
	if c == nil || c.Simulation.Interval.Duration <= 0 {
		return DefaultSimulationInterval
	}
	return c.Simulation.Interval.Duration
}

// TimeRefreshInterval returns the period of the "updated ago" labels.
func (c *Config) TimeRefreshInterval() time.Duration {
	if c == nil || c.Dashboard.TimeRefresh.Duration <= 0 {
		return DefaultTimeRefreshInterval
	}
	return c.Dashboard.TimeRefresh.Duration
}
