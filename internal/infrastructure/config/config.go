package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the PhotoLive host.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Host      HostConfig      `yaml:"host"`
	WebApp    WebAppConfig    `yaml:"webapp"`
	Runtime   RuntimeConfig   `yaml:"runtime"`
	Server    ServerConfig    `yaml:"server"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HostConfig contains the settings the host plugin itself owns.
type HostConfig struct {
	// AutoStart starts the web server as soon as the host is up.
	AutoStart bool `yaml:"auto_start"`

	// PhotosPath is the folder the slideshow watches. Passed to the web app
	// as PHOTOS_PATH when set.
	PhotosPath string `yaml:"photos_path"`

	// Language is the UI language passed to the web app as LANGUAGE.
	Language string `yaml:"language"`
}

// WebAppConfig describes where the subordinate web application lives on disk.
type WebAppConfig struct {
	// Root is the web app directory (the one containing package.json).
	Root string `yaml:"root"`

	// Manifest is the manifest file name inside Root.
	// Default: "package.json"
	Manifest string `yaml:"manifest"`

	// DependencyDir marks a provisioned dependency set.
	// Default: "node_modules"
	DependencyDir string `yaml:"dependency_dir"`

	// Entry overrides the entry script. If empty it is read from the manifest.
	Entry string `yaml:"entry,omitempty"`

	// Install configures the one-time dependency install step.
	Install InstallConfig `yaml:"install"`
}

// InstallConfig configures the dependency provisioning command.
type InstallConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// RuntimeConfig configures how the Node.js executable is located.
type RuntimeConfig struct {
	// Path is an explicit executable path probed before the built-in candidates.
	Path string `yaml:"path,omitempty"`

	// Candidates replaces the built-in list of absolute install locations.
	Candidates []string `yaml:"candidates,omitempty"`

	// Fallback is the bare command name resolved via PATH.
	// Default: "node" ("node.exe" on Windows)
	Fallback string `yaml:"fallback,omitempty"`
}

// ServerConfig contains supervisor settings for the web server process.
type ServerConfig struct {
	// BasePort is the first candidate port. Default: 3001
	BasePort int `yaml:"base_port"`

	// PortCount is the number of candidate ports scanned. Default: 10
	PortCount int `yaml:"port_count"`

	// PortEnv is the environment variable carrying the port. Default: "PORT"
	PortEnv string `yaml:"port_env"`

	// ObservationWindow is how long a freshly spawned server must stay alive
	// before its port is accepted.
	// Default: 2s
	ObservationWindow time.Duration `yaml:"observation_window"`

	// StopTimeout bounds the graceful stop before a forceful kill.
	// Default: 10s
	StopTimeout time.Duration `yaml:"stop_timeout"`

	// LeaseDir holds per-port lock files shared by cooperating supervisors.
	// Empty disables port leasing.
	LeaseDir string `yaml:"lease_dir"`

	// CaptureOutput routes the server's stdout/stderr into debug logs.
	// When false the output is discarded.
	CaptureOutput bool `yaml:"capture_output"`

	// LogLevel is passed to the web app as LOG_LEVEL when set.
	LogLevel string `yaml:"log_level,omitempty"`

	// Env holds extra environment variables for the web app.
	Env map[string]string `yaml:"env,omitempty"`
}

// APIConfig contains host API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`

	// AllowedOrigins lists browser origins allowed by CORS.
	// Empty allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains WebSocket event stream settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// DatabaseConfig contains SQLite settings for the lifecycle journal.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: PHOTOLIVE_SECTION_KEY
// For example: PHOTOLIVE_WEBAPP_ROOT, PHOTOLIVE_SERVER_BASE_PORT
//
// If optional is true a missing file is not an error and defaults are used.
func Load(path string, optional bool) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Host: HostConfig{
			AutoStart: true,
			Language:  "en",
		},
		WebApp: WebAppConfig{
			Root:          "./web-app",
			Manifest:      "package.json",
			DependencyDir: "node_modules",
			Install: InstallConfig{
				Command: "npm",
				Args:    []string{"install"},
			},
		},
		Server: ServerConfig{
			BasePort:          3001,
			PortCount:         10,
			PortEnv:           "PORT",
			ObservationWindow: 2 * time.Second,
			StopTimeout:       10 * time.Second,
			LeaseDir:          "./data/leases",
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Database: DatabaseConfig{
			Path:        "./data/photolive.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "photolive-host",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "photolive",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PHOTOLIVE_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	// Web app
	if v := os.Getenv("PHOTOLIVE_WEBAPP_ROOT"); v != "" {
		cfg.WebApp.Root = v
	}
	if v := os.Getenv("PHOTOLIVE_PHOTOS_PATH"); v != "" {
		cfg.Host.PhotosPath = v
	}

	// Runtime
	if v := os.Getenv("PHOTOLIVE_NODE_PATH"); v != "" {
		cfg.Runtime.Path = v
	}

	// Server
	if v := os.Getenv("PHOTOLIVE_SERVER_BASE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PHOTOLIVE_SERVER_BASE_PORT: %w", err)
		}
		cfg.Server.BasePort = port
	}
	if v := os.Getenv("PHOTOLIVE_SERVER_LEASE_DIR"); v != "" {
		cfg.Server.LeaseDir = v
	}

	// API
	if v := os.Getenv("PHOTOLIVE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// Database
	if v := os.Getenv("PHOTOLIVE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("PHOTOLIVE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("PHOTOLIVE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("PHOTOLIVE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("PHOTOLIVE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("PHOTOLIVE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return nil
}

// maxPort is the highest valid TCP port.
const maxPort = 65535

// Validate checks the configuration for errors.
//
// All problems are collected and reported together.
func (c *Config) Validate() error {
	var errs []string

	// Web app
	if c.WebApp.Root == "" {
		errs = append(errs, "webapp.root is required")
	}
	if c.WebApp.Manifest == "" {
		errs = append(errs, "webapp.manifest is required")
	}
	if c.WebApp.DependencyDir == "" {
		errs = append(errs, "webapp.dependency_dir is required")
	}
	if c.WebApp.Install.Command == "" {
		errs = append(errs, "webapp.install.command is required")
	}

	// Server
	if c.Server.BasePort < 1 || c.Server.BasePort > maxPort {
		errs = append(errs, "server.base_port must be between 1 and 65535")
	}
	if c.Server.PortCount < 1 {
		errs = append(errs, "server.port_count must be at least 1")
	} else if c.Server.BasePort+c.Server.PortCount-1 > maxPort {
		errs = append(errs, "server.base_port + server.port_count exceeds 65535")
	}
	if c.Server.PortEnv == "" || strings.ContainsAny(c.Server.PortEnv, "= ") {
		errs = append(errs, "server.port_env must be a non-empty variable name")
	}
	if c.Server.ObservationWindow <= 0 {
		errs = append(errs, "server.observation_window must be positive")
	}
	if c.Server.StopTimeout <= 0 {
		errs = append(errs, "server.stop_timeout must be positive")
	}

	// API
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > maxPort) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Database
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when database is enabled")
	}

	// MQTT
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
	}

	// InfluxDB
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
