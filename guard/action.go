package guard

// Action constrains the callback types a Guard can bind.
//
// A valid action is invocable with no arguments and produces no result:
// either a bare func(), or a func() error whose error is a failure channel
// rather than a result. Any other shape, such as an action taking arguments
// or returning a non-error value, fails the constraint and is rejected at
// compile time: it was probably meant to compute something, not to run as
// cleanup.
//
// Dropping a bound action cannot fail in Go, so no separate release check
// exists.
type Action interface {
	func() | func() error
}

// Nofail constrains actions whose static signature cannot report failure.
// It is the bindable subset under strict mode; see the strict subpackage.
type Nofail interface {
	func()
}

// Valid is an identity function that compiles only for bindable actions.
// It lets host code check a candidate where it is written, for clearer
// diagnostics than a failing factory call:
//
//	cleanup := guard.Valid(func() { conn.Close() })
func Valid[A Action](fn A) A { return fn }

// normalize converts a bound action to its error-reporting form.
// It panics on a nil action: nil-ness is not rejectable at compile time,
// and failing at bind time beats aborting later at scope exit.
func normalize[A Action](fn A) func() error {
	switch f := any(fn).(type) {
	case func() error:
		if f == nil {
			panic("guard: nil action")
		}
		return f
	case func():
		if f == nil {
			panic("guard: nil action")
		}
		return func() error {
			f()
			return nil
		}
	default:
		// Unreachable: the Action type set admits exactly the cases above.
		panic("guard: unsupported action type")
	}
}
