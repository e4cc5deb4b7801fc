package config

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/hdfsfile/internal/logger"
	"github.com/marmos91/hdfsfile/pkg/hdfsfile"
	"github.com/marmos91/hdfsfile/pkg/native"
	"github.com/marmos91/hdfsfile/pkg/native/badger"
	"github.com/marmos91/hdfsfile/pkg/native/hdfs"
	"github.com/marmos91/hdfsfile/pkg/native/memory"
	"github.com/marmos91/hdfsfile/pkg/native/s3"
	"github.com/mitchellh/mapstructure"
)

type badgerOptions = badger.BadgerDriverConfig

// s3Options represents the driver.s3 section.
type s3Options struct {
	Region          string   `mapstructure:"region"`
	Bucket          string   `mapstructure:"bucket"`
	KeyPrefix       string   `mapstructure:"key_prefix"`
	Endpoint        string   `mapstructure:"endpoint"`
	AccessKeyID     string   `mapstructure:"access_key_id"`
	SecretAccessKey string   `mapstructure:"secret_access_key"`
	MaxRetries      int      `mapstructure:"max_retries"`
	BlockSize       int64    `mapstructure:"block_size"`
	Hosts           []string `mapstructure:"hosts"`
}

// decodeOptions decodes a driver section into out. Durations may be given as
// strings ("30s") and lists as comma-separated strings, which is how they
// arrive from environment variables.
func decodeOptions(options map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(options)
}

// CreateDriver creates a native driver based on configuration.
//
// Supported types:
//   - "hdfs": Uses pkg/native/hdfs (real cluster through colinmarc/hdfs)
//   - "memory": Uses pkg/native/memory (in-process emulation, ephemeral)
//   - "badger": Uses pkg/native/badger (BadgerDB emulation, persistent)
//   - "s3": Uses pkg/native/s3 (Amazon S3 or compatible storage)
//
// Drivers that hold resources implement io.Closer; release them with
// CloseDriver.
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Driver configuration
//   - s3Metrics: Optional S3 metrics (nil = no metrics)
//
// Returns:
//   - native.Driver: Initialized driver
//   - error: Configuration or initialization error
func CreateDriver(ctx context.Context, cfg *DriverConfig, s3Metrics s3.S3Metrics) (native.Driver, error) {
	switch cfg.Type {
	case "hdfs":
		return createHDFSDriver(cfg.HDFS)
	case "memory":
		return createMemoryDriver(cfg.Memory)
	case "badger":
		return createBadgerDriver(ctx, cfg.Badger)
	case "s3":
		return createS3Driver(ctx, cfg.S3, s3Metrics)
	default:
		return nil, fmt.Errorf("unknown driver type: %q", cfg.Type)
	}
}

// CloseDriver releases driver resources if the driver holds any.
func CloseDriver(driver native.Driver) error {
	if c, ok := driver.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// CreateClient binds driver to the client defaults.
func CreateClient(driver native.Driver, cfg *ClientConfig, metrics hdfsfile.Metrics) (*hdfsfile.Client, error) {
	return hdfsfile.NewClient(driver, hdfsfile.Options{
		Coordinator:  cfg.Coordinator,
		BufferSize:   cfg.BufferSize,
		Replication:  cfg.Replication,
		BlockSize:    cfg.BlockSize,
		ConnectRate:  cfg.ConnectRate,
		ConnectBurst: cfg.ConnectBurst,
		Metrics:      metrics,
	})
}

func createHDFSDriver(options map[string]any) (native.Driver, error) {
	var driverCfg hdfs.HDFSDriverConfig
	if err := decodeOptions(options, &driverCfg); err != nil {
		return nil, fmt.Errorf("failed to decode hdfs driver config: %w", err)
	}

	driver, err := hdfs.NewHDFSDriver(driverCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create hdfs driver: %w", err)
	}
	return driver, nil
}

func createMemoryDriver(options map[string]any) (native.Driver, error) {
	var driverCfg memory.MemoryDriverConfig
	if err := decodeOptions(options, &driverCfg); err != nil {
		return nil, fmt.Errorf("failed to decode memory driver config: %w", err)
	}

	return memory.NewMemoryDriver(driverCfg), nil
}

func createBadgerDriver(ctx context.Context, options map[string]any) (native.Driver, error) {
	var driverCfg badgerOptions
	if err := decodeOptions(options, &driverCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger driver config: %w", err)
	}

	driver, err := badger.NewBadgerDriver(ctx, driverCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return driver, nil
}

func createS3Driver(ctx context.Context, options map[string]any, metrics s3.S3Metrics) (native.Driver, error) {
	var driverCfg s3Options
	if err := decodeOptions(options, &driverCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 driver config: %w", err)
	}

	if driverCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 driver: bucket is required")
	}
	if driverCfg.Region == "" {
		return nil, fmt.Errorf("S3 driver: region is required")
	}

	// ========================================================================
	// Step 1: Build AWS Config
	// ========================================================================

	configOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(driverCfg.Region),
	}

	// Static credentials if provided, otherwise the default credential chain
	if driverCfg.AccessKeyID != "" && driverCfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			driverCfg.AccessKeyID,
			driverCfg.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := driverCfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// ========================================================================
	// Step 2: Create S3 Client
	// ========================================================================

	client := awsS3.NewFromConfig(awsCfg, func(o *awsS3.Options) {
		// Custom endpoints (MinIO, Localstack) need path-style addressing
		if driverCfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(driverCfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	// ========================================================================
	// Step 3: Create S3 Driver
	// ========================================================================

	driver, err := s3.NewS3Driver(s3.S3DriverConfig{
		Client:    client,
		Bucket:    driverCfg.Bucket,
		KeyPrefix: driverCfg.KeyPrefix,
		BlockSize: driverCfg.BlockSize,
		Hosts:     driverCfg.Hosts,
		Endpoint:  driverCfg.Endpoint,
		Metrics:   metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 driver: %w", err)
	}

	logger.Debug("S3 driver initialized: bucket=%s, region=%s, prefix=%s",
		driverCfg.Bucket, driverCfg.Region, driverCfg.KeyPrefix)

	return driver, nil
}
