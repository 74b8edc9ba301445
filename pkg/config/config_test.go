package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 11111
  location: Roof
log:
  level: debug
devices:
  - number: 0
    serial_port: /dev/ttyACM0
  - number: 1
    simulate: true
`)
	require.NoError(t, os.WriteFile(path, data, 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 11111, cfg.Server.Port)
	assert.Equal(t, "Roof", cfg.Server.Location)
	assert.Equal(t, "alpaca.db", cfg.Server.Database)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []DeviceConfig{
		{Number: 0, SerialPort: "/dev/ttyACM0"},
		{Number: 1, Simulate: true},
	}, cfg.Devices)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [1, 2"), 0600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, false},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, false},
		{"no database", func(c *Config) { c.Server.Database = "" }, false},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, false},
		{"json format", func(c *Config) { c.Log.Format = "json" }, true},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, false},
		{"no devices", func(c *Config) { c.Devices = nil }, false},
		{"negative device", func(c *Config) { c.Devices = []DeviceConfig{{Number: -1}} }, false},
		{"duplicate device", func(c *Config) { c.Devices = []DeviceConfig{{Number: 1}, {Number: 1}} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
