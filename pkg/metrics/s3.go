package metrics

import (
	"time"

	"github.com/marmos91/hdfsfile/pkg/native/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// s3Metrics records the object-store requests issued by the s3 driver.
//
// Request names are the SDK operations the driver calls (GetObject,
// PutObject, HeadObject, ListObjectsV2, DeleteObject).
type s3Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	bytes           *prometheus.CounterVec
	payloadSize     *prometheus.HistogramVec
}

// NewS3Metrics returns the Prometheus S3 collectors.
//
// Returns nil if metrics are not enabled (InitRegistry not called), which
// makes the S3 driver skip collection.
func NewS3Metrics() s3.S3Metrics {
	if !IsEnabled() {
		return nil
	}
	return newS3Metrics(GetRegistry())
}

func newS3Metrics(reg prometheus.Registerer) *s3Metrics {
	factory := promauto.With(reg)

	return &s3Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdfsfile_s3_requests_total",
				Help: "S3 requests issued by the s3 driver, by request and result",
			},
			[]string{"request", "result"},
		),
		// 5ms .. ~20s
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hdfsfile_s3_request_duration_seconds",
				Help:    "Latency of S3 requests in seconds",
				Buckets: prometheus.ExponentialBuckets(0.005, 2.5, 10),
			},
			[]string{"request"},
		),
		bytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdfsfile_s3_bytes_total",
				Help: "Object bytes moved by S3 requests",
			},
			[]string{"request"},
		),
		// 1KiB .. 1GiB
		payloadSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hdfsfile_s3_payload_bytes",
				Help:    "Size of individual S3 ranged reads and uploads",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 11),
			},
			[]string{"request"},
		),
	}
}

// ObserveOperation implements s3.S3Metrics.
func (m *s3Metrics) ObserveOperation(request string, duration time.Duration, err error) {
	m.requests.WithLabelValues(request, resultLabel(err)).Inc()
	m.requestDuration.WithLabelValues(request).Observe(duration.Seconds())
}

// RecordBytes implements s3.S3Metrics.
func (m *s3Metrics) RecordBytes(request string, bytes int64) {
	if bytes <= 0 {
		return
	}
	m.bytes.WithLabelValues(request).Add(float64(bytes))
	m.payloadSize.WithLabelValues(request).Observe(float64(bytes))
}
