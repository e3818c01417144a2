package entities

import "time"

// Severity distinguishes recoverable diagnostics from fatal ones.
type Severity string

const (
	// SeverityWarning is reported and execution continues.
	SeverityWarning Severity = "warning"
	// SeverityError aborts the current native call chain.
	SeverityError Severity = "error"
)

// Diagnostic is a message raised through one of the native runtime's
// diagnostic channels.
type Diagnostic struct {
	Time      time.Time `json:"time"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Truncated bool      `json:"truncated,omitempty"`
}
