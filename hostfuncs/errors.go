package hostfuncs

import (
	"encoding/json"

	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/reglet-dev/sexpbridge/domain/errors"
	"github.com/reglet-dev/sexpbridge/wireformat"
)

// ErrorResponse represents a structured error returned as JSON to callers
// instead of a trap.
type ErrorResponse struct {
	// Detail is the structured error, when the failure carried one.
	Detail *wireformat.ErrorDetail `json:"detail,omitempty"`

	// Error is a machine-readable error type identifier (e.g., "VALIDATION_ERROR", "INTERNAL_ERROR").
	Error string `json:"error"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Code is a numeric error code (e.g., 400, 500).
	Code int `json:"code"`
}

// ToJSON serializes the ErrorResponse to JSON bytes.
// Returns nil if serialization fails.
func (e ErrorResponse) ToJSON() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	return data
}

// NewValidationError creates an error response for bad input (e.g., malformed JSON).
func NewValidationError(message string) ErrorResponse {
	return ErrorResponse{
		Error:   "VALIDATION_ERROR",
		Message: message,
		Code:    400,
	}
}

// NewNotFoundError creates an error response for unknown handler names.
func NewNotFoundError(name string) ErrorResponse {
	return ErrorResponse{
		Error:   "NOT_FOUND",
		Message: "unknown host function: " + name,
		Code:    404,
	}
}

// NewInternalError creates an error response for unexpected failures.
func NewInternalError(message string) ErrorResponse {
	return ErrorResponse{
		Error:   "INTERNAL_ERROR",
		Message: message,
		Code:    500,
	}
}

// NewPanicError creates an error response for recovered panics. Contract
// violations raised by the native runtime keep their structured detail.
func NewPanicError(panicValue any) ErrorResponse {
	resp := ErrorResponse{Error: "INTERNAL_ERROR", Code: 500}

	switch v := panicValue.(type) {
	case error:
		resp.Message = "panic: " + v.Error()
		if d := errors.ToErrorDetail(v); d != nil && d.Type != "internal" {
			resp.Error = "CONTRACT_VIOLATION"
			resp.Code = 422
			resp.Detail = ToWireError(d)
		}
	case string:
		resp.Message = "panic: " + v
	default:
		resp.Message = "panic: panic recovered"
	}
	return resp
}

// ToWireError converts an ErrorDetail into its wire form.
func ToWireError(d *entities.ErrorDetail) *wireformat.ErrorDetail {
	if d == nil {
		return nil
	}
	return &wireformat.ErrorDetail{
		Wrapped: ToWireError(d.Wrapped),
		Details: d.Details,
		Message: d.Message,
		Type:    d.Type,
		Code:    d.Code,
		Fatal:   d.Fatal,
	}
}
