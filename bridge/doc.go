// Package bridge is the boundary adapter between host Go code and an
// embedded native runtime.
//
// Five operations cross the boundary:
//
//	ForwardWarning   host message  -> native warning channel (returns)
//	ForwardError     host message  -> native error channel (never returns)
//	ExtractString    native vector -> (pointer, length), no copy
//	FindNamedIndex   native list   -> index of a named element, or -1
//	DispatchPrint    native object -> host printer -> native object
//
// ForwardError does not return. It unwinds with a *errors.RError panic,
// which passes through every host frame untouched until the runtime's
// top-level boundary recovers it. Code between the call and that boundary
// must not recover it.
//
// The adapter is as single-threaded as the runtime it fronts.
// WithConcurrencyCheck turns overlapping calls into a panic instead of
// silent corruption.
package bridge
