package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the device agent.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	DeviceID              string `json:"device_id" yaml:"device_id" toml:"device_id"`
	BrokerURL             string `json:"broker_url" yaml:"broker_url" toml:"broker_url"`
	BrokerUsername        string `json:"broker_username" yaml:"broker_username" toml:"broker_username"`
	BrokerPassword        string `json:"broker_password" yaml:"broker_password" toml:"broker_password"`
	QoS                   *int   `json:"qos" yaml:"qos" toml:"qos"`
	RegistrationTopic     string `json:"registration_topic" yaml:"registration_topic" toml:"registration_topic"`
	ConnectTimeoutSeconds int    `json:"connect_timeout_seconds" yaml:"connect_timeout_seconds" toml:"connect_timeout_seconds"`

	Addr        string `json:"addr" yaml:"addr" toml:"addr"`
	LayersDir   string `json:"layers_dir" yaml:"layers_dir" toml:"layers_dir"`
	ArenaBytes  int    `json:"arena_bytes" yaml:"arena_bytes" toml:"arena_bytes"`
	ImageHeight int    `json:"image_height" yaml:"image_height" toml:"image_height"`
	ImageWidth  int    `json:"image_width" yaml:"image_width" toml:"image_width"`

	GCSBucket string `json:"gcs_bucket" yaml:"gcs_bucket" toml:"gcs_bucket"`
	GCSPrefix string `json:"gcs_prefix" yaml:"gcs_prefix" toml:"gcs_prefix"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	CORSAllowedMethods []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods"`
	CORSAllowedHeaders []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers"`
	MaxBodyBytes       int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() Config {
	qos := 2
	return Config{
		DeviceID:              "device_01",
		BrokerURL:             "tcp://localhost:1883",
		QoS:                   &qos,
		RegistrationTopic:     "devices/",
		ConnectTimeoutSeconds: 10,
		Addr:                  ":8080",
		ArenaBytes:            12 * 1024,
		ImageHeight:           10,
		ImageWidth:            10,
		LogLevel:              "info",
		LogFormat:             "json",
		MaxBodyBytes:          1 << 20,
	}
}

// ApplyDefaults fills unspecified fields from Defaults.
func (c *Config) ApplyDefaults() {
	d := Defaults()
	if c.DeviceID == "" {
		c.DeviceID = d.DeviceID
	}
	if c.BrokerURL == "" {
		c.BrokerURL = d.BrokerURL
	}
	if c.QoS == nil {
		c.QoS = d.QoS
	}
	if c.RegistrationTopic == "" {
		c.RegistrationTopic = d.RegistrationTopic
	}
	if c.ConnectTimeoutSeconds == 0 {
		c.ConnectTimeoutSeconds = d.ConnectTimeoutSeconds
	}
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.ArenaBytes == 0 {
		c.ArenaBytes = d.ArenaBytes
	}
	if c.ImageHeight == 0 {
		c.ImageHeight = d.ImageHeight
	}
	if c.ImageWidth == 0 {
		c.ImageWidth = d.ImageWidth
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.DeviceID == "" || strings.ContainsAny(c.DeviceID, "/#+") {
		return fmt.Errorf("device_id %q must be non-empty and free of MQTT topic characters", c.DeviceID)
	}
	if c.QoS != nil && (*c.QoS < 0 || *c.QoS > 2) {
		return fmt.Errorf("qos must be 0, 1 or 2, got %d", *c.QoS)
	}
	if c.BrokerURL != "" {
		u, err := url.Parse(c.BrokerURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("broker_url %q is not a valid URL", c.BrokerURL)
		}
	}
	if c.ArenaBytes < 0 {
		return fmt.Errorf("arena_bytes must not be negative, got %d", c.ArenaBytes)
	}
	if c.ImageHeight < 0 || c.ImageWidth < 0 {
		return fmt.Errorf("image shape %dx%d is invalid", c.ImageHeight, c.ImageWidth)
	}
	if c.ConnectTimeoutSeconds < 0 {
		return fmt.Errorf("connect_timeout_seconds must not be negative")
	}
	switch c.LogFormat {
	case "", "json", "console":
	default:
		return fmt.Errorf("log_format must be json or console, got %q", c.LogFormat)
	}
	if c.GCSPrefix != "" && c.GCSBucket == "" {
		return fmt.Errorf("gcs_prefix set without gcs_bucket")
	}
	return nil
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
