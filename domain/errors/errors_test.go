package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRError(t *testing.T) {
	err := &RError{Message: "object 'x' not found"}
	assert.Equal(t, "Error: object 'x' not found", err.Error())

	detail := err.ToErrorDetail()
	assert.Equal(t, "native", detail.Type)
	assert.True(t, detail.Fatal)
	assert.Equal(t, "object 'x' not found", detail.Message)
}

func TestAsRError(t *testing.T) {
	rerr := &RError{Message: "boom"}

	got, ok := AsRError(rerr)
	require.True(t, ok)
	assert.Same(t, rerr, got)

	wrapped := fmt.Errorf("host call failed: %w", rerr)
	got, ok = AsRError(wrapped)
	require.True(t, ok)
	assert.Same(t, rerr, got)

	_, ok = AsRError("a string panic")
	assert.False(t, ok)

	_, ok = AsRError(errors.New("plain"))
	assert.False(t, ok)

	_, ok = AsRError(nil)
	assert.False(t, ok)
}

func TestHandleError(t *testing.T) {
	stale := &HandleError{Index: 4, Generation: 1, Current: 2}
	assert.Equal(t, "stale handle <4#1>: slot is at generation 2", stale.Error())

	invalid := &HandleError{Index: 99, Generation: 1}
	assert.Equal(t, "invalid handle <99#1>: no such slot", invalid.Error())
	assert.Equal(t, "handle", invalid.ToErrorDetail().Type)
}

func TestTypeError(t *testing.T) {
	err := &TypeError{Op: "STRING_ELT", Want: entities.STRSXP, Got: entities.VECSXP}
	assert.Equal(t, "STRING_ELT: expected STRSXP, got VECSXP", err.Error())
}

func TestBoundsError(t *testing.T) {
	err := &BoundsError{Op: "STRING_ELT", Index: 3, Length: 3}
	assert.Equal(t, "STRING_ELT: index 3 out of range [0, 3)", err.Error())

	detail := err.ToErrorDetail()
	assert.Equal(t, 3, detail.Details["index"])
	assert.Equal(t, 3, detail.Details["length"])
}

func TestConfigError(t *testing.T) {
	baseErr := fmt.Errorf("must be at least 100")
	err := &ConfigError{Field: "warning_length", Err: baseErr}

	assert.Equal(t, "config validation failed for field 'warning_length': must be at least 100", err.Error())
	assert.True(t, errors.Is(err, baseErr))

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "warning_length", cfgErr.Field)
}

func TestConfigError_NoField(t *testing.T) {
	err := &ConfigError{Err: fmt.Errorf("yaml: line 1")}
	assert.Equal(t, "config validation failed: yaml: line 1", err.Error())
}

func TestPackError(t *testing.T) {
	baseErr := fmt.Errorf("unsupported kind chan")
	err := &PackError{GoType: "chan int", Err: baseErr}

	assert.Equal(t, "cannot pack chan int: unsupported kind chan", err.Error())
	assert.ErrorIs(t, err, baseErr)
}

func TestToErrorDetail(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, ToErrorDetail(nil))
	})

	t.Run("generic error", func(t *testing.T) {
		detail := ToErrorDetail(errors.New("something broke"))
		assert.Equal(t, "internal", detail.Type)
		assert.Equal(t, "something broke", detail.Message)
	})

	t.Run("detailed error through wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", &AllocationError{Requested: 10, Current: 5, Limit: 12})
		detail := ToErrorDetail(err)
		assert.Equal(t, "allocation", detail.Type)
		assert.Equal(t, "memory_limit", detail.Code)
	})

	t.Run("entity passthrough", func(t *testing.T) {
		entity := entities.NewErrorDetail("bounds", "too far")
		assert.Same(t, entity, ToErrorDetail(entity))
	})
}
