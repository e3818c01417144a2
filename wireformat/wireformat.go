// Package wireformat defines the JSON wire format structures exchanged with
// the shim's host functions. These types must remain stable and backward
// compatible as they define the ABI contract.
package wireformat

import (
	"fmt"
	"time"
)

// ContextWireFormat is the JSON wire format for context.Context propagation.
type ContextWireFormat struct {
	Deadline  *time.Time `json:"deadline,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
	TimeoutMs int64      `json:"timeout_ms,omitempty"`
	Canceled  bool       `json:"canceled,omitempty"`
}

// HandleWire identifies a native object.
type HandleWire struct {
	Index      uint32 `json:"index"`
	Generation uint32 `json:"generation"`
}

// MessageWire carries a diagnostic message for R_warning and R_error.
type MessageWire struct {
	Message string            `json:"message"`
	Context ContextWireFormat `json:"context"`
}

// AckWire is the response of a call that returns nothing.
type AckWire struct {
	Error *ErrorDetail `json:"error,omitempty"`
	OK    bool         `json:"ok"`
}

// StringEltRequestWire asks R_gostring for element Index of a character vector.
type StringEltRequestWire struct {
	Context ContextWireFormat `json:"context"`
	Vector  HandleWire        `json:"vector"`
	Index   int               `json:"index"`
}

// StringEltResponseWire describes the element's bytes in linear memory.
// Descriptor is the packed form (ptr<<32 | len).
type StringEltResponseWire struct {
	Error      *ErrorDetail `json:"error,omitempty"`
	Value      string       `json:"value,omitempty"`
	Descriptor uint64       `json:"descriptor"`
	Ptr        uint32       `json:"ptr"`
	Len        uint32       `json:"len"`
}

// ListIndexRequestWire asks getListElementIndex for the element called Name.
type ListIndexRequestWire struct {
	Name    string            `json:"name"`
	Context ContextWireFormat `json:"context"`
	List    HandleWire        `json:"list"`
}

// ListIndexResponseWire holds the element index, or -1.
type ListIndexResponseWire struct {
	Error *ErrorDetail `json:"error,omitempty"`
	Index int          `json:"index"`
}

// ObjectWire carries a single object to or from print_sexp.
// Summary is set on responses only and holds the object's printed form,
// cut at the host's output limit when SummaryTruncated is set.
type ObjectWire struct {
	Error            *ErrorDetail      `json:"error,omitempty"`
	Summary          string            `json:"summary,omitempty"`
	Context          ContextWireFormat `json:"context"`
	Object           HandleWire        `json:"object"`
	SummaryTruncated bool              `json:"summary_truncated,omitempty"`
}

// DiagnosticWire is one warning drained from the runtime.
type DiagnosticWire struct {
	Time      time.Time `json:"time"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Truncated bool      `json:"truncated,omitempty"`
}

// DrainRequestWire asks for the pending native warnings.
type DrainRequestWire struct {
	Context ContextWireFormat `json:"context"`
}

// DiagnosticsWire lists the warnings drained from the runtime. Dropped
// counts warnings discarded since the runtime was created because the
// pending list was full.
type DiagnosticsWire struct {
	Warnings []DiagnosticWire `json:"warnings"`
	Dropped  int              `json:"dropped,omitempty"`
}

// ErrorDetail provides structured error information, consistent across host and caller.
// Error Types: "native", "handle", "type", "bounds", "allocation", "config", "panic", "internal"
type ErrorDetail struct {
	Wrapped *ErrorDetail   `json:"wrapped,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Message string         `json:"message"`
	Type    string         `json:"type"`
	Code    string         `json:"code,omitempty"`
	Fatal   bool           `json:"fatal,omitempty"`
}

// Error implements the error interface for ErrorDetail.
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Type != "" && e.Type != "internal" {
		msg = fmt.Sprintf("%s: %s", e.Type, msg)
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Code)
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped.Error())
	}
	return msg
}
