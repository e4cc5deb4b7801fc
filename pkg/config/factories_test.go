package config

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/hdfsfile/pkg/native/badger"
	"github.com/marmos91/hdfsfile/pkg/native/hdfs"
	"github.com/marmos91/hdfsfile/pkg/native/memory"
	"github.com/marmos91/hdfsfile/pkg/native/s3"
)

func TestCreateDriver_Memory(t *testing.T) {
	cfg := &DriverConfig{
		Type: "memory",
		Memory: map[string]any{
			"block_size":  "1024",
			"replication": 2,
			"datanodes":   []any{"dn1", "dn2"},
		},
	}

	driver, err := CreateDriver(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create memory driver: %v", err)
	}
	if _, ok := driver.(*memory.MemoryDriver); !ok {
		t.Fatalf("Expected *memory.MemoryDriver, got %T", driver)
	}
	if err := CloseDriver(driver); err != nil {
		t.Errorf("Closing a memory driver should be a no-op, got %v", err)
	}
}

func TestCreateDriver_Badger(t *testing.T) {
	cfg := &DriverConfig{
		Type:   "badger",
		Badger: map[string]any{"db_path": filepath.Join(t.TempDir(), "db")},
	}

	driver, err := CreateDriver(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create badger driver: %v", err)
	}
	if _, ok := driver.(*badger.BadgerDriver); !ok {
		t.Fatalf("Expected *badger.BadgerDriver, got %T", driver)
	}
	if err := CloseDriver(driver); err != nil {
		t.Errorf("Failed to close badger driver: %v", err)
	}
}

func TestCreateDriver_BadgerMissingPath(t *testing.T) {
	cfg := &DriverConfig{Type: "badger", Badger: map[string]any{}}

	if _, err := CreateDriver(context.Background(), cfg, nil); err == nil {
		t.Fatal("Expected error for badger driver without db_path")
	}
}

func TestCreateDriver_HDFS(t *testing.T) {
	cfg := &DriverConfig{
		Type: "hdfs",
		HDFS: map[string]any{
			"addresses":    "nn1:8020,nn2:8020",
			"user":         "hadoop",
			"http_timeout": "5s",
		},
	}

	driver, err := CreateDriver(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create hdfs driver: %v", err)
	}
	if _, ok := driver.(*hdfs.HDFSDriver); !ok {
		t.Fatalf("Expected *hdfs.HDFSDriver, got %T", driver)
	}
}

func TestCreateDriver_S3(t *testing.T) {
	cfg := &DriverConfig{
		Type: "s3",
		S3: map[string]any{
			"region":            "us-east-1",
			"bucket":            "data",
			"endpoint":          "http://localhost:9000",
			"access_key_id":     "minio",
			"secret_access_key": "minio123",
			"key_prefix":        "hdfs",
		},
	}

	// Building the client does not contact the endpoint.
	driver, err := CreateDriver(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create S3 driver: %v", err)
	}
	if _, ok := driver.(*s3.S3Driver); !ok {
		t.Fatalf("Expected *s3.S3Driver, got %T", driver)
	}
}

func TestCreateDriver_S3MissingBucket(t *testing.T) {
	cfg := &DriverConfig{Type: "s3", S3: map[string]any{"region": "us-east-1"}}

	if _, err := CreateDriver(context.Background(), cfg, nil); err == nil {
		t.Fatal("Expected error for S3 driver without bucket")
	}
}

func TestCreateDriver_Unknown(t *testing.T) {
	if _, err := CreateDriver(context.Background(), &DriverConfig{Type: "ftp"}, nil); err == nil {
		t.Fatal("Expected error for unknown driver type")
	}
}

func TestCreateClient(t *testing.T) {
	driver := memory.NewMemoryDriver(memory.MemoryDriverConfig{})

	client, err := CreateClient(driver, &ClientConfig{Coordinator: "nn1"}, nil)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	if client.Coordinator() != "nn1" {
		t.Errorf("Expected coordinator 'nn1', got %q", client.Coordinator())
	}
}

func TestDecodeOptions(t *testing.T) {
	var out hdfs.HDFSDriverConfig
	err := decodeOptions(map[string]any{
		"addresses":       []any{"a:1", "b:2"},
		"webhdfs_address": "http://a:9870",
		"http_timeout":    "1m",
	}, &out)
	if err != nil {
		t.Fatalf("decodeOptions failed: %v", err)
	}

	if len(out.Addresses) != 2 || out.Addresses[1] != "b:2" {
		t.Errorf("Unexpected addresses %v", out.Addresses)
	}
	if out.HTTPTimeout != time.Minute {
		t.Errorf("Expected 1m timeout, got %v", out.HTTPTimeout)
	}
}

func TestInitializeMetrics_Disabled(t *testing.T) {
	result := InitializeMetrics(GetDefaultConfig())

	if result.Server != nil || result.ClientMetrics != nil || result.S3Metrics != nil {
		t.Error("Expected no metrics components when disabled")
	}
}
