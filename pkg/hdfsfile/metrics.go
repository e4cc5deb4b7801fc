package hdfsfile

import "time"

// Metrics provides observability for handle operations.
//
// Implementations can use this interface to collect operation latency,
// throughput and connection counts. This is optional; a nil Metrics in
// Options disables collection.
type Metrics interface {
	// ObserveOperation records a native call with its duration and outcome
	ObserveOperation(operation string, duration time.Duration, err error)

	// RecordBytes records bytes transferred by "read" and "write" calls
	RecordBytes(operation string, bytes int64)

	// ConnectionOpened and ConnectionClosed track live connections
	ConnectionOpened()
	ConnectionClosed()
}

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(operation string, duration time.Duration, err error) {}
func (noopMetrics) RecordBytes(operation string, bytes int64)                            {}
func (noopMetrics) ConnectionOpened()                                                   {}
func (noopMetrics) ConnectionClosed()                                                   {}
