package config

import (
	"github.com/marmos91/hdfsfile/pkg/hdfsfile"
	"github.com/marmos91/hdfsfile/pkg/metrics"
	"github.com/marmos91/hdfsfile/pkg/native/s3"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// ClientMetrics is passed to hdfsfile.Options (nil if disabled)
	ClientMetrics hdfsfile.Metrics

	// S3Metrics is passed to the S3 driver (nil if disabled)
	S3Metrics s3.S3Metrics
}

// InitializeMetrics creates the metrics components for cfg.
//
// If metrics are enabled it initializes the global Prometheus registry and
// creates the HTTP server and the Prometheus-backed collectors. Otherwise all
// fields are nil and components fall back to their no-op implementations.
//
// Collectors register on the global registry, so call it once per process.
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{}
	}

	metrics.InitRegistry()

	return &MetricsResult{
		Server:        metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port}),
		ClientMetrics: metrics.NewClientMetrics(),
		S3Metrics:     metrics.NewS3Metrics(),
	}
}
