// Package config loads the settings of the cachesim command from a YAML
// file, a .env file, and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/cachesim/logging"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/hierarchy"
)

// Environment variables that override the file.
const (
	EnvLogLevel    = "CACHESIM_LOG_LEVEL"
	EnvPort        = "CACHESIM_PORT"
	EnvSeed        = "CACHESIM_SEED"
	EnvRecord      = "CACHESIM_RECORD"
	EnvActivityDB  = "CACHESIM_ACTIVITY_DB"
	EnvOpenBrowser = "CACHESIM_OPEN_BROWSER"
)

// Config contains all cachesim settings.
type Config struct {
	// Cache is the L1 configuration.
	Cache cache.Config `json:"cache" yaml:"cache"`

	// L2 overrides the L2 derived from Cache.
	L2 *cache.Config `json:"l2,omitempty" yaml:"l2,omitempty"`

	// Seed seeds random replacement.
	Seed int64 `json:"seed" yaml:"seed"`

	// MaxAddress bounds the address space. Zero means 32 bits.
	MaxAddress uint64 `json:"max_address,omitempty" yaml:"max_address,omitempty"`

	// LogLevel is "info" (default), "debug", or "trace".
	LogLevel string `json:"log_level" yaml:"log_level"`

	Monitor  MonitorConfig  `json:"monitor" yaml:"monitor"`
	Record   RecordConfig   `json:"record" yaml:"record"`
	Activity ActivityConfig `json:"activity" yaml:"activity"`
}

// MonitorConfig configures the HTTP monitor.
type MonitorConfig struct {
	// Port is the TCP port. Zero picks a free one.
	Port int `json:"port" yaml:"port"`

	// OpenBrowser opens the monitor in a browser on start.
	OpenBrowser bool `json:"open_browser" yaml:"open_browser"`
}

// RecordConfig configures the step recorder.
type RecordConfig struct {
	// Path is the database name without the .sqlite3 suffix. Empty
	// disables recording.
	Path string `json:"path" yaml:"path"`
}

// ActivityConfig configures the activity history.
type ActivityConfig struct {
	// Path is the SQLite file. Empty disables the history.
	Path string `json:"path" yaml:"path"`
}

// Default returns the configuration used when nothing is specified.
func Default() *Config {
	return &Config{
		Cache:    cache.DefaultConfig(),
		Seed:     1,
		LogLevel: "info",
		Monitor: MonitorConfig{
			Port: 32776,
		},
	}
}

// Load reads the optional YAML file at path on top of the defaults, then
// the optional .env file, then applies environment overrides.
func Load(path, dotEnvPath string) (*Config, error) {
	config := Default()

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}

		config = fileConfig
	}

	if err := LoadDotEnv(dotEnvPath); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

// LoadDotEnv sets the variables of a .env file that are not already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

func applyEnvOverrides(config *Config) error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.LogLevel = v
	}

	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}

		config.Monitor.Port = port
	}

	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseInt(v, 0, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}

		config.Seed = seed
	}

	if v := os.Getenv(EnvRecord); v != "" {
		config.Record.Path = v
	}

	if v := os.Getenv(EnvActivityDB); v != "" {
		config.Activity.Path = v
	}

	if v := os.Getenv(EnvOpenBrowser); v != "" {
		config.Monitor.OpenBrowser = v == "true" || v == "1"
	}

	return nil
}

// Hierarchy returns the cache part of the configuration.
func (c *Config) Hierarchy() hierarchy.Config {
	return hierarchy.Config{
		L1:         c.Cache,
		L2:         c.L2,
		Seed:       c.Seed,
		MaxAddress: c.MaxAddress,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Hierarchy().Validate(); err != nil {
		return err
	}

	if !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace)",
			c.LogLevel)
	}

	if c.Monitor.Port < 0 || c.Monitor.Port > 65535 {
		return fmt.Errorf("invalid monitor port: %d", c.Monitor.Port)
	}

	return nil
}
