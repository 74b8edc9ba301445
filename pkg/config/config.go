package config

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Log     LogConfig      `yaml:"log"`
	Devices []DeviceConfig `yaml:"devices"`
}

type ServerConfig struct {
	Name      string `yaml:"name"`
	Location  string `yaml:"location"`
	Port      int    `yaml:"port"`
	Database  string `yaml:"database"`
	Discovery bool   `yaml:"discovery"`
	Metrics   bool   `yaml:"metrics"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DeviceConfig declares one telescope. SerialPort and Simulate override the
// device settings stored in the database.
type DeviceConfig struct {
	Number     int    `yaml:"number"`
	SerialPort string `yaml:"serial_port"`
	Simulate   bool   `yaml:"simulate"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name:      "TeenAstro Alpaca Server",
			Location:  "Observatory",
			Port:      8090,
			Database:  "alpaca.db",
			Discovery: true,
			Metrics:   true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Devices: []DeviceConfig{{Number: 0}},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration correctness without mutating it.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.Database == "" {
		return fmt.Errorf("server.database cannot be empty")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if len(c.Devices) == 0 {
		return fmt.Errorf("at least one device must be configured")
	}

	seen := make(map[int]bool)
	for _, d := range c.Devices {
		if d.Number < 0 {
			return fmt.Errorf("device number %d must not be negative", d.Number)
		}
		if seen[d.Number] {
			return fmt.Errorf("device number %d configured twice", d.Number)
		}
		seen[d.Number] = true
	}
	return nil
}

// ApplyLogging configures the standard logrus logger.
func (c *Config) ApplyLogging() {
	if level, err := log.ParseLevel(c.Log.Level); err == nil {
		log.SetLevel(level)
	}
	if strings.EqualFold(c.Log.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	}
}
