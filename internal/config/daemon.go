// Package config loads daemon and receiver configuration: the daemon reads
// a yaml file with env overrides for secrets, the receiver merges CLI flags
// with environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/andrasq/kstats/internal/misc"
)

// BackendKind selects one of the supported upload backends at config time,
// so an unknown name fails before any loop starts.
type BackendKind string

const (
	BackendGateway  BackendKind = "gateway"
	BackendInflux   BackendKind = "influx"
	BackendPostgres BackendKind = "postgres"
	BackendMQTT     BackendKind = "mqtt"
)

// Configuration errors, surfaced synchronously and never retried.
var (
	ErrUnknownBackend  = errors.New("config: unknown backend kind")
	ErrNoBackendConfig = errors.New("config: backend section missing")
	ErrNoJournalPath   = errors.New("config: journal path required")
)

// Duration decodes yaml durations given either as integer seconds or Go
// duration syntax ("90", "2m").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: bad duration %q: %w", s, err)
	}
	*d = Duration(dd)
	return nil
}

// Std converts to the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DaemonConfig is the kstatsd configuration file.
type DaemonConfig struct {
	Journal   JournalConfig   `yaml:"journal"`
	Upload    UploadConfig    `yaml:"upload"`
	Collector CollectorConfig `yaml:"collector"`
	Backend   BackendConfig   `yaml:"backend"`
}

// JournalConfig locates the journal file and names its samples.
type JournalConfig struct {
	Path   string `yaml:"path"`
	Prefix string `yaml:"prefix"`
}

// UploadConfig controls the upload loop cadence and staleness window.
type UploadConfig struct {
	Interval   Duration `yaml:"interval"`
	StaleAfter Duration `yaml:"stale_after"`
}

// CollectorConfig controls the built-in system sampler.
type CollectorConfig struct {
	Enabled        bool     `yaml:"enabled"`
	PollInterval   Duration `yaml:"poll_interval"`
	ReportInterval Duration `yaml:"report_interval"`
}

// BackendConfig selects and configures the upload backend.
type BackendConfig struct {
	Kind     BackendKind     `yaml:"kind"`
	Instance string          `yaml:"instance"`
	Gateway  *GatewayConfig  `yaml:"gateway"`
	Influx   *InfluxConfig   `yaml:"influx"`
	Postgres *PostgresConfig `yaml:"postgres"`
	MQTT     *MQTTConfig     `yaml:"mqtt"`
}

// GatewayConfig configures the HTTP gateway backend.
type GatewayConfig struct {
	URL     string `yaml:"url"`
	APIKey  string `yaml:"api_key"`
	SignKey string `yaml:"sign_key"`
}

// InfluxConfig configures the InfluxDB 2.x backend.
type InfluxConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// PostgresConfig configures the Postgres/Timescale backend.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// MQTTConfig configures the MQTT backend.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      int    `yaml:"qos"`
}

const (
	defaultJournalPath    = "kstats.log"
	defaultUploadInterval = 2 * time.Minute
	defaultPollInterval   = 2 * time.Second
	defaultReportInterval = 10 * time.Second
)

// LoadDaemonConfig reads the yaml file, applies defaults and environment
// overrides (ENV > file for secrets and instance identity), and validates.
func LoadDaemonConfig(path string) (*DaemonConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg DaemonConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *DaemonConfig) applyDefaults() {
	if strings.TrimSpace(c.Journal.Path) == "" {
		c.Journal.Path = defaultJournalPath
	}
	if c.Upload.Interval <= 0 {
		c.Upload.Interval = Duration(defaultUploadInterval)
	}
	if c.Collector.PollInterval <= 0 {
		c.Collector.PollInterval = Duration(defaultPollInterval)
	}
	if c.Collector.ReportInterval <= 0 {
		c.Collector.ReportInterval = Duration(defaultReportInterval)
	}
	if c.Backend.Instance == "" {
		if host, err := os.Hostname(); err == nil {
			c.Backend.Instance = host
		}
	}
}

func (c *DaemonConfig) applyEnv() {
	c.Backend.Instance = misc.Getenv("KSTATS_INSTANCE", c.Backend.Instance)
	if c.Backend.Gateway != nil {
		c.Backend.Gateway.APIKey = misc.Getenv("KSTATS_API_KEY", c.Backend.Gateway.APIKey)
		c.Backend.Gateway.SignKey = misc.Getenv("KSTATS_SIGN_KEY", c.Backend.Gateway.SignKey)
	}
	if c.Backend.Influx != nil {
		c.Backend.Influx.Token = misc.Getenv("KSTATS_INFLUX_TOKEN", c.Backend.Influx.Token)
	}
	if c.Backend.Postgres != nil {
		c.Backend.Postgres.DSN = misc.Getenv("KSTATS_DATABASE_DSN", c.Backend.Postgres.DSN)
	}
	if c.Backend.MQTT != nil {
		c.Backend.MQTT.Password = misc.Getenv("KSTATS_MQTT_PASSWORD", c.Backend.MQTT.Password)
	}
}

func (c *DaemonConfig) validate() error {
	if strings.TrimSpace(c.Journal.Path) == "" {
		return ErrNoJournalPath
	}
	switch c.Backend.Kind {
	case BackendGateway:
		if c.Backend.Gateway == nil {
			return fmt.Errorf("%w: gateway", ErrNoBackendConfig)
		}
	case BackendInflux:
		if c.Backend.Influx == nil {
			return fmt.Errorf("%w: influx", ErrNoBackendConfig)
		}
	case BackendPostgres:
		if c.Backend.Postgres == nil {
			return fmt.Errorf("%w: postgres", ErrNoBackendConfig)
		}
	case BackendMQTT:
		if c.Backend.MQTT == nil {
			return fmt.Errorf("%w: mqtt", ErrNoBackendConfig)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend.Kind)
	}
	return nil
}
