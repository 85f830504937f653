// Package observability defines the structured logging and metrics contracts
// used across the downloader. Implementations live in the stdout and metrics
// subpackages; components depend only on these interfaces so tests can inject
// mocks.
package observability

import "context"

// Fields represents structured logging fields as key-value pairs.
type Fields map[string]interface{}

// Logger is the contract for structured, context-aware logging. Output is
// JSON-formatted so a log aggregation system can index the fields.
type Logger interface {
	// Info logs general operational information.
	Info(ctx context.Context, msg string, fields Fields)

	// Error logs a failure together with the causing error.
	Error(ctx context.Context, msg string, err error, fields Fields)

	// Warn logs a potentially harmful situation that does not stop the run.
	Warn(ctx context.Context, msg string, fields Fields)

	// Debug logs detail useful during troubleshooting; filtered out by
	// default in production.
	Debug(ctx context.Context, msg string, fields Fields)

	// WithFields returns a Logger that includes fields in every entry.
	WithFields(fields Fields) Logger
}

// Metrics is the contract for metrics collection. The Prometheus
// implementation follows Prometheus naming conventions; a run being a batch
// job, the collected registry is pushed at exit rather than scraped.
type Metrics interface {
	// RecordSuccess increments the success counter for an operation type.
	RecordSuccess(operation string)

	// RecordError increments the error counter for an operation and error
	// category.
	RecordError(operation string, errorType string)

	// RecordDuration records an operation duration in seconds.
	RecordDuration(operation string, seconds float64)

	// RecordFileSize records the size of a transferred product in bytes.
	RecordFileSize(productType string, bytes int64)

	// StartOperation increments the in-progress gauge for an operation.
	// Pair with EndOperation, usually in a defer.
	StartOperation(operation string)

	// EndOperation decrements the in-progress gauge for an operation.
	EndOperation(operation string)
}
