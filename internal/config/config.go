package config

import (
	"os"

	"gopkg.in/yaml.v2"

	gslberrors "github.com/polaris-gslb/polaris/internal/errors"
)

// Config represents the main configuration structure
type Config struct {
	Pools   map[string]PoolConfig `yaml:"pools"`
	Logging LoggingConfig         `yaml:"logging"`
}

// PoolConfig contains the configuration of one pool
type PoolConfig struct {
	// Monitor names a registered monitor kind
	Monitor string `yaml:"monitor"`
	// MonitorParams, if present, must be non-empty; it is handed verbatim
	// to the monitor factory
	MonitorParams map[string]interface{} `yaml:"monitor_params,omitempty"`
	// LBMethod is "wrr" or "twrr"
	LBMethod string `yaml:"lb_method"`
	// Fallback is "any" or "refuse"; empty selects the pool default
	Fallback string `yaml:"fallback,omitempty"`
	// MaxAddrsReturned is passed through only when present
	MaxAddrsReturned *int `yaml:"max_addrs_returned,omitempty"`
	// Members maps member IPv4 addresses to their settings
	Members map[string]MemberConfig `yaml:"members"`
}

// MemberConfig contains the configuration of one pool member
type MemberConfig struct {
	Name   string `yaml:"name"`
	Weight int    `yaml:"weight"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	File   string `yaml:"file"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, gslberrors.Wrap(err, gslberrors.ErrCodeConfigLoad,
			"failed to read config file %s", filename)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, gslberrors.Wrap(err, gslberrors.ErrCodeConfigLoad,
			"failed to parse config file %s", filename)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the file-level shape of the configuration. Per-pool
// validation happens in the Loader, which fails fast on the first bad pool.
func (c *Config) Validate() error {
	if len(c.Pools) == 0 {
		return gslberrors.New(gslberrors.ErrCodeConfigLoad,
			"configuration must contain a non-empty pools map")
	}
	return nil
}
