// Package errors provides the error types of the native boundary.
// All error types support error unwrapping via errors.As() and errors.Is().
//
// RError is special: it is the payload of the native runtime's fatal error
// channel and travels as a panic, not as a return value. Only the runtime's
// top-level boundary turns it back into an ordinary error.
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/reglet-dev/sexpbridge/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is implemented by error types that can describe themselves
// as a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// RError is a fatal diagnostic raised through the native error channel.
type RError struct {
	Message   string
	Truncated bool
}

func (e *RError) Error() string {
	return "Error: " + e.Message
}

// ToErrorDetail implements DetailedError.
func (e *RError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Message, Type: "native", Fatal: true}
}

// AsRError reports whether a recovered panic value is a native fatal error.
func AsRError(recovered any) (*RError, bool) {
	err, ok := recovered.(error)
	if !ok {
		return nil, false
	}
	var rerr *RError
	if stdErrors.As(err, &rerr) {
		return rerr, true
	}
	return nil, false
}

// HandleError is raised when a handle does not name a live object.
type HandleError struct {
	Index      uint32
	Generation uint32
	// Current is the slot's present generation; zero when the index is out of range.
	Current uint32
}

func (e *HandleError) Error() string {
	if e.Current == 0 {
		return fmt.Sprintf("invalid handle <%d#%d>: no such slot", e.Index, e.Generation)
	}
	return fmt.Sprintf("stale handle <%d#%d>: slot is at generation %d", e.Index, e.Generation, e.Current)
}

// ToErrorDetail implements DetailedError.
func (e *HandleError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "handle", Code: "stale_handle"}
}

// TypeError is raised when an accessor is applied to an object of the wrong type.
type TypeError struct {
	Op   string
	Want entities.SEXPType
	Got  entities.SEXPType
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Op, e.Want, e.Got)
}

// ToErrorDetail implements DetailedError.
func (e *TypeError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "type", Code: e.Op}
}

// BoundsError is raised when an element index is outside a vector.
type BoundsError struct {
	Op     string
	Index  int
	Length int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s: index %d out of range [0, %d)", e.Op, e.Index, e.Length)
}

// ToErrorDetail implements DetailedError.
func (e *BoundsError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{
		Message: e.Error(),
		Type:    "bounds",
		Code:    e.Op,
		Details: map[string]any{"index": e.Index, "length": e.Length},
	}
}

// AllocationError represents a linear memory allocation failure.
type AllocationError struct {
	Requested int
	Current   int
	Limit     int
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("cannot allocate %d bytes: %d bytes live, limit %d bytes",
		e.Requested, e.Current, e.Limit)
}

// ToErrorDetail implements DetailedError.
func (e *AllocationError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "allocation", Code: "memory_limit"}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: e.Field}
}

// PackError is returned when a Go value cannot be converted to a native object.
type PackError struct {
	Err    error
	GoType string
}

func (e *PackError) Error() string {
	return fmt.Sprintf("cannot pack %s: %v", e.GoType, e.Err)
}

func (e *PackError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *PackError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "type", Code: "pack"}
}

// WireFormatError represents a wire format encoding/decoding error.
type WireFormatError struct {
	Err       error
	Operation string
	Type      string
}

func (e *WireFormatError) Error() string {
	return fmt.Sprintf("wire format %s failed for %s: %v", e.Operation, e.Type, e.Err)
}

func (e *WireFormatError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *WireFormatError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "internal", Code: "wire_format"}
}
