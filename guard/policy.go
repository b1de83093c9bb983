package guard

// Policy decides whether a guard's action runs at scope exit.
type Policy int

const (
	// PolicyAlways runs the action unconditionally.
	PolicyAlways Policy = iota
	// PolicyOnSuccess runs the action only when no failure is propagating.
	PolicyOnSuccess
	// PolicyOnFailure runs the action only when a failure is propagating.
	PolicyOnFailure
)

// String returns the string representation of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyAlways:
		return "always"
	case PolicyOnSuccess:
		return "on-success"
	case PolicyOnFailure:
		return "on-failure"
	default:
		return "unknown"
	}
}

// Signal reports whether a failure is currently propagating out of the
// guarded scope. It is queried exactly once, at scope exit.
//
// Contract:
//   - Concurrency: queried from the goroutine that owns the guard.
//   - Errors: must not panic.
//   - Performance: runs inline during scope exit; must return quickly.
type Signal func() bool

// Failure returns a Signal backed by a named error return. Read at defer
// time, the pointed-to error holds the value the enclosing function is
// about to return:
//
//	func run() (err error) {
//	    g := guard.OnFailure(rollback, guard.Failure(&err))
//	    defer g.Exit()
//	    // ...
//	}
//
// Failure panics if errp is nil.
func Failure(errp *error) Signal {
	if errp == nil {
		panic("guard: nil error pointer")
	}
	return func() bool { return *errp != nil }
}

// shouldRun evaluates the policy against the failure signal. The signal is
// nil only for PolicyAlways, which never consults it.
func (p Policy) shouldRun(failing Signal) bool {
	switch p {
	case PolicyOnSuccess:
		return !failing()
	case PolicyOnFailure:
		return failing()
	default:
		return true
	}
}
