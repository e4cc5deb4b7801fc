package metrics

import (
	"time"

	"github.com/marmos91/hdfsfile/pkg/hdfsfile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// clientMetrics is the Prometheus implementation of hdfsfile.Metrics.
//
// This implementation collects:
//   - Native call counts by operation and status
//   - Native call latency
//   - Bytes read and written
//   - Live connections
type clientMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
}

// NewClientMetrics creates a Prometheus-backed hdfsfile.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called), which
// makes the client use its built-in no-op implementation. Call it once per
// registry.
func NewClientMetrics() hdfsfile.Metrics {
	if !IsEnabled() {
		return nil
	}
	return newClientMetrics(GetRegistry())
}

func newClientMetrics(reg prometheus.Registerer) *clientMetrics {
	factory := promauto.With(reg)

	return &clientMetrics{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdfsfile_operations_total",
				Help: "Native calls issued by file handles, by operation and result",
			},
			[]string{"operation", "result"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hdfsfile_operation_duration_seconds",
				Help:    "Duration of native calls in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 3, 10), // 500us .. ~10s
			},
			[]string{"operation"},
		),
		bytesTransferred: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdfsfile_bytes_transferred_total",
				Help: "Total bytes transferred by file handles",
			},
			[]string{"operation"}, // read or write
		),
		connectionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hdfsfile_connections_active",
				Help: "Number of live coordinator connections",
			},
		),
		connectionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hdfsfile_connections_total",
				Help: "Total number of coordinator connections opened",
			},
		),
	}
}

// ObserveOperation implements hdfsfile.Metrics.ObserveOperation
func (m *clientMetrics) ObserveOperation(operation string, duration time.Duration, err error) {
	m.operationsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordBytes implements hdfsfile.Metrics.RecordBytes
func (m *clientMetrics) RecordBytes(operation string, bytes int64) {
	if bytes > 0 {
		m.bytesTransferred.WithLabelValues(operation).Add(float64(bytes))
	}
}

// ConnectionOpened implements hdfsfile.Metrics.ConnectionOpened
func (m *clientMetrics) ConnectionOpened() {
	m.connectionsActive.Inc()
	m.connectionsTotal.Inc()
}

// ConnectionClosed implements hdfsfile.Metrics.ConnectionClosed
func (m *clientMetrics) ConnectionClosed() {
	m.connectionsActive.Dec()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
