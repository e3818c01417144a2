// Package entities provides the value types that cross the native/host
// boundary: object handles, string descriptors, type codes, diagnostics and
// runtime configuration. None of them own native memory.
package entities
