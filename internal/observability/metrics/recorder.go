// Package metrics provides Prometheus metrics for the MemoBread components.
package metrics

import "time"

// Recorder is the minimal metrics interface components depend on
type Recorder interface {
	// RecordOperation counts an operation ("create", "delete") with its status ("success", "error")
	RecordOperation(operation, status string)
	// RecordDuration records how long an operation took, in seconds
	RecordDuration(operation string, seconds float64)
	// RecordError counts an error by operation and category
	RecordError(operation, errorType string)
}

// Operation and status label values
const (
	OpCreate  = "create"
	OpList    = "list"
	OpGet     = "get"
	OpDelete  = "delete"
	OpResolve = "resolve"

	StatusSuccess = "success"
	StatusError   = "error"

	LocationResolved = "resolved"
	LocationUnknown  = "unknown"
	LocationSkipped  = "skipped"
)

// ShutdownTimeout bounds the telemetry server shutdown
const ShutdownTimeout = 5 * time.Second
