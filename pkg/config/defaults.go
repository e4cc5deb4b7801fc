package config

import (
	"strings"

	"github.com/marmos91/hdfsfile/pkg/native"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Driver-specific defaults are handled by the drivers themselves, except
//     for the few keys written out for config file generation
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyClientDefaults(&cfg.Client)
	applyDriverDefaults(&cfg.Driver)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyClientDefaults(cfg *ClientConfig) {
	if cfg.Coordinator == "" {
		cfg.Coordinator = native.DefaultCoordinator
	}
	// BufferSize, Replication and BlockSize default to 0 (cluster defaults)
}

// applyDriverDefaults sets driver defaults.
func applyDriverDefaults(cfg *DriverConfig) {
	if cfg.Type == "" {
		cfg.Type = "hdfs"
	}

	if cfg.HDFS == nil {
		cfg.HDFS = make(map[string]any)
	}
	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}

	// Defaults for all driver types (for config file generation)
	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = "/tmp/hdfsfile-badger"
	}
	if _, ok := cfg.S3["region"]; !ok {
		cfg.S3["region"] = "us-east-1"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
