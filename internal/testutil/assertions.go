// Package testutil provides common test utilities and assertions for the boundary tests.
package testutil

import (
	"encoding/json"
	stdErrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/sexpbridge/domain/errors"
)

// Recover runs f and returns the value it panicked with, or nil.
func Recover(f func()) (recovered any) {
	defer func() {
		recovered = recover()
	}()
	f()
	return nil
}

// RequirePanicsWith asserts that f panics with an error of type T and
// returns it.
func RequirePanicsWith[T error](t *testing.T, f func(), msgAndArgs ...interface{}) T {
	t.Helper()

	rec := Recover(f)
	require.NotNil(t, rec, msgAndArgs...)
	err, ok := rec.(error)
	require.True(t, ok, "panic value %v (%T) is not an error", rec, rec)

	var target T
	require.True(t, stdErrors.As(err, &target), "panic %T is not a %T", err, target)
	return target
}

// RequireRError asserts that f raised a native fatal error and returns it.
func RequireRError(t *testing.T, f func(), msgAndArgs ...interface{}) *errors.RError {
	t.Helper()
	return RequirePanicsWith[*errors.RError](t, f, msgAndArgs...)
}

// RequireNeverReturns asserts that f unwinds instead of returning. The
// callback passed to f marks the point after the call that must be
// unreachable.
func RequireNeverReturns(t *testing.T, f func(reached func())) any {
	t.Helper()

	returned := false
	rec := Recover(func() {
		f(func() { returned = true })
	})
	require.NotNil(t, rec, "expected a non-local exit")
	assert.False(t, returned, "control returned past a call that never returns")
	return rec
}

// AssertJSONEqual compares two JSON strings for equality, ignoring formatting
func AssertJSONEqual(t *testing.T, expected, actual string, msgAndArgs ...interface{}) {
	t.Helper()

	var expectedJSON, actualJSON interface{}
	require.NoError(t, json.Unmarshal([]byte(expected), &expectedJSON), "expected JSON is invalid")
	require.NoError(t, json.Unmarshal([]byte(actual), &actualJSON), "actual JSON is invalid")

	assert.Equal(t, expectedJSON, actualJSON, msgAndArgs...)
}
