package teenastro

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	bucket     = "alpaca"
	parkBucket = "teenastro_park"
)

// MQTTConfig configures the optional field mirror.
type MQTTConfig struct {
	Enabled   bool   `json:"enabled"`
	Host      string `json:"host"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	TopicRoot string `json:"topic_root"`
}

// Config is the per device configuration edited from the setup page.
type Config struct {
	SerialPort   string  `json:"serial_port"`
	Baud         int     `json:"baud"`
	PollInterval int     `json:"poll_interval_ms"`
	Simulate     bool    `json:"simulate"`
	SiteKnown    bool    `json:"site_known"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`

	MQTTConfig `json:"mqtt"`
}

var defaultConfig = Config{
	SerialPort:   "/dev/ttyUSB0",
	Baud:         defaultBaud,
	PollInterval: 1000,
	MQTTConfig: MQTTConfig{
		Host:      "tcp://localhost:1883",
		TopicRoot: "teenastro",
	},
}

// ParkPosition is the stored park position of both axes in degrees.
type ParkPosition struct {
	Axis1 float64 `json:"axis1"`
	Axis2 float64 `json:"axis2"`
}

// ParkStore loads and stores park positions by device identity.
type ParkStore interface {
	LoadPark(deviceID string) (ParkPosition, bool, error)
	StorePark(deviceID string, p ParkPosition) error
}

type store struct {
	db        *bolt.DB
	configKey string
}

// NewStore creates a store for device number n and sets the default
// configuration if none is stored yet.
func NewStore(db *bolt.DB, n int) (*store, error) {
	st := store{db: db, configKey: fmt.Sprintf("teenastro_config_%d", n)}

	if err := st.setDefaults(); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *store) setDefaults() error {
	if _, err := s.GetConfig(); err != nil {
		log.Infof("Setting default TeenAstro config")
		return s.SetConfig(defaultConfig)
	}
	return nil
}

// SetConfig saves the device configuration as a json string in the database.
func (s *store) SetConfig(cfg Config) error {
	return s.put(bucket, s.configKey, cfg)
}

// GetConfig retrieves the device configuration from the database.
func (s *store) GetConfig() (Config, error) {
	var cfg Config
	found, err := s.get(bucket, s.configKey, &cfg)
	if err == nil && !found {
		err = fmt.Errorf("key %s not found", s.configKey)
	}
	return cfg, err
}

func (s *store) LoadPark(deviceID string) (ParkPosition, bool, error) {
	var p ParkPosition
	found, err := s.get(parkBucket, deviceID, &p)
	return p, found, err
}

func (s *store) StorePark(deviceID string, p ParkPosition) error {
	return s.put(parkBucket, deviceID, p)
}

func (s *store) put(name, key string, v any) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(name))
		if err != nil {
			return err
		}

		value, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
}

func (s *store) get(name, key string, v any) (bool, error) {
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(name))
		if b == nil {
			return nil
		}

		value := b.Get([]byte(key))
		if value == nil {
			return nil
		}
		found = true
		return json.Unmarshal(value, v)
	})
	return found, err
}
