// Package guard provides a scope-exit guard: a value that binds a cleanup
// action to the lifetime of a lexical scope and runs it exactly once when
// the scope is left.
//
// A guard is created by one of the factory functions and its end of life is
// triggered by deferring Exit at the binding site:
//
//	func process(f *os.File) {
//	    g := guard.New(func() { f.Close() })
//	    defer g.Exit()
//	    // every return path below runs the action exactly once
//	}
//
// # Exit Policies
//
// The factory selects when the action fires:
//
//   - [New]: the action runs unconditionally at scope exit.
//   - [OnSuccess]: the action runs only when the supplied [Signal] reports
//     no propagating failure.
//   - [OnFailure]: the action runs only when the Signal reports a
//     propagating failure. Typical use is rolling back partial work.
//
// Go propagates failures through error returns, so the canonical Signal is
// [Failure] over a named error return:
//
//	func transfer(db *sql.DB) (err error) {
//	    tx, err := db.Begin()
//	    if err != nil {
//	        return err
//	    }
//	    g := guard.OnFailure(func() { tx.Rollback() }, guard.Failure(&err))
//	    defer g.Exit()
//	    // ...
//	    return tx.Commit()
//	}
//
// Without a Signal source only the unconditional policy is available; the
// conditional factories structurally require one.
//
// # Ownership
//
// Exactly one guard owns the right to invoke a bound action. Guards must not
// be copied (go vet flags copies); [Guard.Transfer] is the only way to move
// a guard between bindings, and it deactivates the source in the same step.
// [Guard.Dismiss] cancels the action without running it and is idempotent.
//
// # Failing Actions
//
// An error or panic escaping an action during Exit terminates the process.
// Scope-exit handlers that can fail are not composable with other unwinding
// in progress, so the failure is never allowed to propagate past Exit. The
// strict subpackage rejects failure-capable actions at compile time.
package guard
