// Package config handles fcagent configuration file parsing and defaults,
// grounded on the YAML config layout used elsewhere in this retrieved
// pack (zgrnetd's pkg/config).
//
// Example:
//
//	server:
//	  host: "freeciv.example.org"
//	  port: 6556
//	join:
//	  username: "explorer"
//	  timeout_seconds: 10
//	capture:
//	  enabled: true
//	  dir: "./captures"
//	log:
//	  level: "info"
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for fcagent.
type Config struct {
	Server      ServerConfig     `yaml:"server"`
	Join        JoinConfig       `yaml:"join"`
	Capture     CaptureConfig    `yaml:"capture"`
	Log         LogConfig        `yaml:"log"`
	SchemaFiles []string         `yaml:"schema_files"`
	Validation  ValidationConfig `yaml:"validation"`
}

// ServerConfig holds the address of the FreeCiv server to join.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the "host:port" dial address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// JoinConfig holds join-handshake parameters.
type JoinConfig struct {
	Username       string `yaml:"username"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the join timeout as a time.Duration, defaulting to 10
// seconds when unset (spec.md §4.6).
func (j JoinConfig) Timeout() time.Duration {
	if j.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(j.TimeoutSeconds) * time.Second
}

// CaptureConfig controls raw packet capture to disk for debugging.
type CaptureConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// LogConfig controls the logrus level fcagent runs at.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ValidationConfig is parsed from the config file's validation section.
// Neither fcagent nor fcvalidate reads it; fcvalidate takes its directory
// as a command-line argument and reads no config file.
type ValidationConfig struct {
	Strict bool `yaml:"strict"`
}

// Load reads and parses a YAML config file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse parses a YAML config from raw bytes and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 6556
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Capture.Enabled && c.Capture.Dir == "" {
		c.Capture.Dir = "./captures"
	}
}

// Validate checks the configuration for errors that would otherwise only
// surface as a confusing dial or join failure.
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return fmt.Errorf("config: server.host is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Join.Username == "" {
		return fmt.Errorf("config: join.username is required")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	return nil
}
