// Package ports defines the interfaces between the boundary adapter and its
// collaborators: the native runtime's C API surface, its linear memory, the
// host's diagnostic sink and print logic, and configuration parsing.
package ports
