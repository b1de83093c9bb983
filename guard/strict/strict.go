// Package strict provides the no-fail mode of the guard factories: only
// actions that are statically incapable of reporting failure can be bound.
//
// Importing strict is the opt-in. The guards it produces behave exactly like
// those from the guard package; the difference is purely at compile time.
// A func() error action, which the guard package accepts and answers with
// process termination should the error surface at scope exit, does not
// compile here:
//
//	g := strict.New(func() { close(done) }) // ok
//	g := strict.New(tx.Rollback)            // compile error: func() error
package strict

import "github.com/jonwraymond/scopeops/guard"

// New binds a no-fail action that runs unconditionally at scope exit.
// See [guard.New].
func New(fn func(), opts ...guard.Option) *guard.Guard {
	return guard.New(fn, opts...)
}

// OnSuccess binds a no-fail action that runs at scope exit only while
// failing reports no propagating failure. See [guard.OnSuccess].
func OnSuccess(fn func(), failing guard.Signal, opts ...guard.Option) *guard.Guard {
	return guard.OnSuccess(fn, failing, opts...)
}

// OnFailure binds a no-fail action that runs at scope exit only while
// failing reports a propagating failure. See [guard.OnFailure].
func OnFailure(fn func(), failing guard.Signal, opts ...guard.Option) *guard.Guard {
	return guard.OnFailure(fn, failing, opts...)
}
