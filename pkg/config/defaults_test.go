package config

import "testing"

func TestApplyDefaults_Empty(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("Expected output 'stderr', got %q", cfg.Logging.Output)
	}
	if cfg.Driver.Type != "hdfs" {
		t.Errorf("Expected driver 'hdfs', got %q", cfg.Driver.Type)
	}
	if cfg.Driver.HDFS == nil || cfg.Driver.Memory == nil || cfg.Driver.Badger == nil || cfg.Driver.S3 == nil {
		t.Error("Expected all driver maps to be initialized")
	}
	if cfg.Driver.Badger["db_path"] != "/tmp/hdfsfile-badger" {
		t.Errorf("Unexpected badger db_path default %v", cfg.Driver.Badger["db_path"])
	}
	if cfg.Client.BlockSize != 0 || cfg.Client.Replication != 0 {
		t.Error("Expected open tuning to default to cluster defaults (0)")
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "warn", Format: "json", Output: "/var/log/hdfsfile.log"},
		Client:  ClientConfig{Coordinator: "nn1:8020", BufferSize: 65536},
		Driver: DriverConfig{
			Type:   "badger",
			Badger: map[string]any{"db_path": "/data/db"},
		},
		Metrics: MetricsConfig{Enabled: true, Port: 9300},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected normalized level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Output != "/var/log/hdfsfile.log" {
		t.Error("Expected explicit logging values to be preserved")
	}
	if cfg.Client.Coordinator != "nn1:8020" || cfg.Client.BufferSize != 65536 {
		t.Error("Expected explicit client values to be preserved")
	}
	if cfg.Driver.Badger["db_path"] != "/data/db" {
		t.Errorf("Expected explicit db_path, got %v", cfg.Driver.Badger["db_path"])
	}
	if cfg.Metrics.Port != 9300 {
		t.Errorf("Expected metrics port 9300, got %d", cfg.Metrics.Port)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
}
