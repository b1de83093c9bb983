// Package observe provides observability for scope-exit guards.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. Consumers attach it to guards through the guard
// package's hook surface; the guard's behavior is never affected by
// telemetry.
package observe
