package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// TomlServer holds settings for the HTTP proxy
type TomlServer struct {
	Port         int      `toml:"port,omitempty"`
	AllowOrigins []string `toml:"allow_origins,omitempty"`
}

// TomlConfig represents the top-level configuration.
// Every key is optional, unset keys leave the command line defaults in place.
type TomlConfig struct {
	AppView   string     `toml:"appview,omitempty"`
	Timeout   string     `toml:"timeout,omitempty"`
	UserAgent string     `toml:"user_agent,omitempty"`
	LogLevel  string     `toml:"log_level,omitempty"`
	Server    TomlServer `toml:"server"`
}

func LoadConfig(path string) (*TomlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config TomlConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if _, err := config.RequestTimeout(); err != nil {
		return nil, err
	}

	return &config, nil
}

// RequestTimeout parses the timeout key. It returns zero when the key is unset.
func (c *TomlConfig) RequestTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	timeout, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q in config file: %w", c.Timeout, err)
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("invalid timeout %q in config file: must be positive", c.Timeout)
	}
	return timeout, nil
}
