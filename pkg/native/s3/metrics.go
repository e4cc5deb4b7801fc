package s3

import "time"

// S3Metrics provides observability for S3 requests.
//
// Implementations can use this interface to collect latency, throughput and
// error counts. This is optional; if not provided, collection is skipped.
type S3Metrics interface {
	// ObserveOperation records an S3 request with its duration and outcome
	ObserveOperation(operation string, duration time.Duration, err error)

	// RecordBytes records bytes transferred for read/write requests
	RecordBytes(operation string, bytes int64)
}

// noopMetrics is a default no-op metrics implementation
type noopMetrics struct{}

func (noopMetrics) ObserveOperation(operation string, duration time.Duration, err error) {}
func (noopMetrics) RecordBytes(operation string, bytes int64)                            {}
