package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"cardrelay/buzzer"
	"cardrelay/delivery"
	"cardrelay/indicator"
	"cardrelay/link"
	"cardrelay/mqtt"
	"cardrelay/reader"
	"cardrelay/relay"
)

// Config is the main configuration structure for cardrelay.
type Config struct {
	// Collector endpoint that receives card identifiers
	Collector delivery.Config `yaml:"collector"`

	// Network link and credentials
	Link link.Config `yaml:"link"`

	// Reader configuration
	Reader reader.Config `yaml:"reader"`

	// Poll loop timing
	Timing relay.Config `yaml:"timing"`

	// Optional event mirror
	MQTT mqtt.Config `yaml:"mqtt"`

	// Feedback
	Indicator indicator.Config `yaml:"indicator"`
	Buzzer    buzzer.Config    `yaml:"buzzer"`

	// General settings
	ClientID string `yaml:"client_id"`
	HoldSecs int    `yaml:"hold_secs"` // how long an outcome stays on the indicator
}

// LoadConfig reads and validates the YAML config at path.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ClientID == "" {
		return errors.New("client_id missing in config file")
	}
	if c.Collector.Host == "" {
		return errors.New("collector.host missing in config file")
	}
	if c.Collector.Port < 0 || c.Collector.Port > 65535 {
		return fmt.Errorf("collector.port %d out of range", c.Collector.Port)
	}
	if c.HoldSecs == 0 {
		c.HoldSecs = 2
	}
	return nil
}
