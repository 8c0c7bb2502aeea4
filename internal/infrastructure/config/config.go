package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for wxuplink.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Source       SourceConfig        `yaml:"source"`
	API          APIConfig           `yaml:"api"`
	DeadLetter   DeadLetterConfig    `yaml:"dead_letter"`
	Logging      LoggingConfig       `yaml:"logging"`
	Destinations []DestinationConfig `yaml:"destinations"`
}

// SourceConfig describes the MQTT feed the station software publishes on.
type SourceConfig struct {
	Broker       BrokerConfig `yaml:"broker"`
	Auth         AuthConfig   `yaml:"auth"`
	QoS          int          `yaml:"qos"`
	LoopTopic    string       `yaml:"loop_topic"`
	ArchiveTopic string       `yaml:"archive_topic"`
}

// BrokerConfig contains MQTT broker connection details.
type BrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// AuthConfig contains MQTT authentication credentials.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// APIConfig contains the status HTTP server settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// DeadLetterConfig contains the local spool for abandoned records.
type DeadLetterConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// DestinationConfig describes one InfluxDB write target. Each enabled
// destination runs its own delivery worker with an independent queue.
type DestinationConfig struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`

	// Required write-API parameters.
	ServerURL   string `yaml:"server_url"`
	Bucket      string `yaml:"bucket"`
	Org         string `yaml:"org"`
	APIToken    string `yaml:"api_token"`
	Measurement string `yaml:"measurement"`

	// Client selects the delivery mechanism: "http" posts line protocol
	// directly, "influx" goes through the InfluxDB client library.
	Client string `yaml:"client"`

	// Binding selects which station events feed this destination:
	// "loop", "archive", or "loop,archive".
	Binding string `yaml:"binding"`

	// Tags are static tag pairs ("station=home") appended to every line.
	// Tags must not contain whitespace.
	Tags []string `yaml:"tags"`

	// ObsToUpload is the field-selection policy: "all", "most" (skip
	// reserved bookkeeping fields), or "selected" (only Fields below).
	ObsToUpload string   `yaml:"obs_to_upload"`
	Fields      []string `yaml:"fields"`
	Omit        []string `yaml:"omit"`

	// Inputs are per-field overrides keyed by observation name.
	Inputs map[string]FieldOverride `yaml:"inputs"`

	// AppendUnitsLabel appends the unit suffix to field names (outTemp_F).
	AppendUnitsLabel bool `yaml:"append_units_label"`

	// UnitSystem converts records to this system before upload:
	// "US", "METRIC", or "METRICWX". Empty leaves records as published.
	UnitSystem string `yaml:"unit_system"`

	// LineFormat selects the payload shape: "single-line", "multi-line",
	// or "multi-line-dotted".
	LineFormat string `yaml:"line_format"`

	// Delivery tuning. Integer seconds, zero means default or disabled.
	MaxTries     int `yaml:"max_tries"`
	RetryWait    int `yaml:"retry_wait"`
	Timeout      int `yaml:"timeout"`
	PostInterval int `yaml:"post_interval"`
	MaxAge       int `yaml:"max_age"`
	QueueSize    int `yaml:"queue_size"`
	BacklogLimit int `yaml:"backlog_limit"`
}

// FieldOverride customizes a single observation's output.
// Zero-value entries fall back to computed defaults.
type FieldOverride struct {
	Name   string `yaml:"name"`
	Units  string `yaml:"units"`
	Format string `yaml:"format"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: WXUPLINK_SECTION_KEY
// For example: WXUPLINK_SOURCE_HOST, WXUPLINK_API_TOKEN
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Broker: BrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS:          1,
			LoopTopic:    "weather/loop",
			ArchiveTopic: "weather/archive",
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8089,
		},
		DeadLetter: DeadLetterConfig{
			Path:        "./data/deadletter.db",
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: WXUPLINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Source
	if v := os.Getenv("WXUPLINK_SOURCE_HOST"); v != "" {
		cfg.Source.Broker.Host = v
	}
	if v := os.Getenv("WXUPLINK_SOURCE_USERNAME"); v != "" {
		cfg.Source.Auth.Username = v
	}
	if v := os.Getenv("WXUPLINK_SOURCE_PASSWORD"); v != "" {
		cfg.Source.Auth.Password = v
	}

	// API token applies to every destination that did not set its own,
	// so single-destination deployments can keep the token out of the file.
	if v := os.Getenv("WXUPLINK_API_TOKEN"); v != "" {
		for i := range cfg.Destinations {
			if cfg.Destinations[i].APIToken == "" {
				cfg.Destinations[i].APIToken = v
			}
		}
	}

	// Dead letter
	if v := os.Getenv("WXUPLINK_DEADLETTER_PATH"); v != "" {
		cfg.DeadLetter.Path = v
	}
}

// Validate checks the configuration for errors.
//
// Destination-level problems are NOT reported here: a destination that
// fails its own Validate() is disabled by the caller while the rest of
// the process keeps running. Only process-wide misconfiguration fails Load.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Source.Broker.Host == "" {
		errs = append(errs, "source.broker.host is required")
	}
	if c.Source.QoS < 0 || c.Source.QoS > 2 {
		errs = append(errs, "source.qos must be 0, 1, or 2")
	}
	if c.Source.LoopTopic == "" && c.Source.ArchiveTopic == "" {
		errs = append(errs, "at least one of source.loop_topic or source.archive_topic is required")
	}
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.DeadLetter.Enabled && c.DeadLetter.Path == "" {
		errs = append(errs, "dead_letter.path is required when dead_letter.enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Validate checks a single destination for required parameters and
// recognized enum values. A failing destination is skipped at startup;
// it does not stop the process or the other destinations.
func (d *DestinationConfig) Validate() error {
	var missing []string
	if d.ServerURL == "" {
		missing = append(missing, "server_url")
	}
	if d.Bucket == "" {
		missing = append(missing, "bucket")
	}
	if d.APIToken == "" {
		missing = append(missing, "api_token")
	}
	if d.Measurement == "" {
		missing = append(missing, "measurement")
	}
	if len(missing) > 0 {
		return fmt.Errorf("destination %q missing required config: %s", d.Name, strings.Join(missing, ", "))
	}

	switch d.Client {
	case "", "http", "influx":
	default:
		return fmt.Errorf("destination %q: client must be \"http\" or \"influx\"", d.Name)
	}

	switch d.LineFormat {
	case "", "single-line", "multi-line", "multi-line-dotted":
	default:
		return fmt.Errorf("destination %q: unknown line_format %q", d.Name, d.LineFormat)
	}

	switch d.ObsToUpload {
	case "", "all", "most", "selected":
	default:
		return fmt.Errorf("destination %q: unknown obs_to_upload %q", d.Name, d.ObsToUpload)
	}
	if d.ObsToUpload == "selected" && len(d.Fields) == 0 {
		return fmt.Errorf("destination %q: obs_to_upload \"selected\" requires fields", d.Name)
	}

	for _, tag := range d.Tags {
		if strings.ContainsAny(tag, " \t") || !strings.Contains(tag, "=") {
			return fmt.Errorf("destination %q: tag %q must be key=value without whitespace", d.Name, tag)
		}
	}

	return nil
}

// GetRetryWait returns the wait between delivery attempts as a Duration.
func (d *DestinationConfig) GetRetryWait() time.Duration {
	if d.RetryWait <= 0 {
		return 5 * time.Second
	}
	return time.Duration(d.RetryWait) * time.Second
}

// GetTimeout returns the per-attempt HTTP timeout as a Duration.
func (d *DestinationConfig) GetTimeout() time.Duration {
	if d.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(d.Timeout) * time.Second
}

// GetPostInterval returns the minimum interval between POSTs.
// Zero disables throttling.
func (d *DestinationConfig) GetPostInterval() time.Duration {
	if d.PostInterval <= 0 {
		return 0
	}
	return time.Duration(d.PostInterval) * time.Second
}

// GetMaxAge returns the staleness threshold. Zero disables the check.
func (d *DestinationConfig) GetMaxAge() time.Duration {
	if d.MaxAge <= 0 {
		return 0
	}
	return time.Duration(d.MaxAge) * time.Second
}

// GetMaxTries returns the delivery attempt limit, at least one.
func (d *DestinationConfig) GetMaxTries() int {
	if d.MaxTries <= 0 {
		return 3
	}
	return d.MaxTries
}

// GetQueueSize returns the delivery queue capacity.
func (d *DestinationConfig) GetQueueSize() int {
	if d.QueueSize <= 0 {
		return 100
	}
	return d.QueueSize
}
