package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete hdfsfile configuration.
//
// This structure captures all configurable aspects of the hdfsfile CLI and
// clients built from it:
//   - Logging configuration
//   - Client defaults (coordinator and open tuning)
//   - Driver selection and driver-specific configuration
//   - Metrics collection
//
// Later sources override earlier ones: built-in defaults, the config file
// (YAML or TOML), HDFSFILE_* environment variables, then the CLI's global
// flags, which cmd/hdfsfile applies after Load.
//
// Driver Configuration Pattern:
// Each driver defines its own configuration type. The Config struct carries
// one map per driver type (driver.hdfs, driver.badger, ...) and only the
// section matching driver.type is decoded.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Client contains handle defaults
	Client ClientConfig `mapstructure:"client" yaml:"client"`

	// Driver specifies the native driver type and its configuration
	Driver DriverConfig `mapstructure:"driver" yaml:"driver"`

	// Metrics controls Prometheus metrics collection
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ClientConfig holds the defaults applied to every handle.
type ClientConfig struct {
	// Coordinator is the coordinator used when a command names none.
	// "default" selects the one configured for the driver or environment.
	Coordinator string `mapstructure:"coordinator" yaml:"coordinator" validate:"required"`

	// BufferSize is passed to native opens (0 = driver default)
	BufferSize int `mapstructure:"buffer_size" yaml:"buffer_size" validate:"gte=0"`

	// Replication is the replica count for new files (0 = cluster default)
	Replication int `mapstructure:"replication" yaml:"replication" validate:"gte=0,lte=512"`

	// BlockSize is the block size for new files in bytes (0 = cluster default)
	BlockSize int64 `mapstructure:"block_size" yaml:"block_size" validate:"gte=0"`

	// ConnectRate caps new coordinator connections per second (0 = unlimited)
	ConnectRate uint `mapstructure:"connect_rate" yaml:"connect_rate"`

	// ConnectBurst is how many connects may start at once (0 = connect_rate)
	ConnectBurst uint `mapstructure:"connect_burst" yaml:"connect_burst"`
}

// DriverConfig specifies the native driver.
//
// The Type field determines which driver is created. Only the corresponding
// type-specific section is used.
type DriverConfig struct {
	// Type specifies which driver to use
	// Valid values: hdfs, memory, badger, s3
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=hdfs memory badger s3"`

	// HDFS contains hdfs-specific configuration
	// Only used when Type = "hdfs"
	HDFS map[string]any `mapstructure:"hdfs" yaml:"hdfs"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3"`
}

// MetricsConfig controls Prometheus metrics collection.
type MetricsConfig struct {
	// Enabled turns on collection and the /metrics endpoint
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port of the /metrics endpoint
	Port int `mapstructure:"port" yaml:"port" validate:"omitempty,min=1,max=65535"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (HDFSFILE_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the HDFSFILE_ prefix and underscores
	// Example: HDFSFILE_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("HDFSFILE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{
		"logging.level", "logging.format", "logging.output",
		"client.coordinator", "client.buffer_size", "client.replication", "client.block_size",
		"client.connect_rate", "client.connect_burst",
		"driver.type",
		"metrics.enabled", "metrics.port",
	} {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/hdfsfile/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file. A missing file, at the default
// location or at an explicit -config path, leaves defaults and env in effect.
func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()

	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil, errors.As(err, &notFound), errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
	}
}

// getConfigDir resolves $XDG_CONFIG_HOME/hdfsfile, then ~/.config/hdfsfile.
// Without a home directory it uses the working directory.
func getConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "."
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "hdfsfile")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists reports whether a config file is present at the default path.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the directory holding the default config file.
func GetConfigDir() string {
	return getConfigDir()
}
