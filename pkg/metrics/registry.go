// Package metrics provides Prometheus metrics collection for hdfsfile
// clients and drivers.
//
// All metrics are optional: if the registry is not initialized, constructors
// return nil and components fall back to their no-op implementations.
//
// Usage:
//
//	metrics.InitRegistry()
//	client, _ := hdfsfile.NewClient(driver, hdfsfile.Options{Metrics: metrics.NewClientMetrics()})
//	s3Driver, _ := s3.NewS3Driver(s3.S3DriverConfig{Metrics: metrics.NewS3Metrics(), ...})
//
// Expose the registry with NewServer or mount Handler on an existing mux.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// registry is set once by InitRegistry; nil means metrics are disabled.
var registry atomic.Pointer[prometheus.Registry]

// InitRegistry creates the process-wide registry with the Go runtime and
// process collectors already registered. Later calls are no-ops.
//
// Call it before any New*Metrics constructor; constructors called earlier
// return nil.
func InitRegistry() {
	reg := prometheus.NewRegistry()
	if !registry.CompareAndSwap(nil, reg) {
		return
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// GetRegistry returns the registry, or nil while metrics are disabled.
func GetRegistry() *prometheus.Registry {
	return registry.Load()
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return registry.Load() != nil
}
