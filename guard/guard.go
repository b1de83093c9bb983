package guard

import (
	"fmt"
	"os"
	"time"
)

// Outcome classifies what happened to a guard's action.
type Outcome int

const (
	// OutcomeFired means the action was invoked at scope exit.
	OutcomeFired Outcome = iota
	// OutcomeSuppressed means the guard was active at scope exit but the
	// policy ruled the action out.
	OutcomeSuppressed
	// OutcomeDismissed means the guard reached scope exit after Dismiss.
	OutcomeDismissed
	// OutcomeTransferred means the right to invoke the action moved to
	// another guard.
	OutcomeTransferred
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeFired:
		return "fired"
	case OutcomeSuppressed:
		return "suppressed"
	case OutcomeDismissed:
		return "dismissed"
	case OutcomeTransferred:
		return "transferred"
	default:
		return "unknown"
	}
}

// Event describes a guard lifecycle notification delivered to a Hook.
type Event struct {
	// Name is the guard name; empty unless WithName was used.
	Name string
	// Policy is the guard's exit policy.
	Policy Policy
	// Outcome classifies the notification.
	Outcome Outcome
	// Duration is the action's run time; zero unless the action fired.
	Duration time.Duration
	// Err is the error the action returned, if any. A non-nil Err is
	// delivered immediately before the process terminates.
	Err error
}

// Hook receives guard lifecycle notifications.
//
// Contract:
//   - must not panic
//   - should return quickly; hooks run inline with Transfer and Exit
type Hook func(Event)

// fatal terminates the process when an action fails during scope exit.
// Swapped out in tests.
var fatal = func(msg string, v any) {
	fmt.Fprintf(os.Stderr, "guard: %s: %v\n", msg, v)
	os.Exit(2)
}

// Guard binds one action to the lifetime of a lexical scope. A guard starts
// active; it stops being active through Dismiss, through being the source of
// a Transfer, or through Exit. Once inactive it never becomes active again,
// and an inactive guard never invokes its action.
//
// A Guard is a purely sequential construct: like any scope-local variable it
// is owned by one logical thread of control at a time and is not safe for
// concurrent use.
type Guard struct {
	noCopy noCopy

	action func() error
	signal Signal
	policy Policy
	hook   Hook
	name   string
	active bool
}

// Option configures a Guard at construction time.
type Option func(*Guard)

// WithName attaches a name carried on hook events, for telemetry.
func WithName(name string) Option {
	return func(g *Guard) { g.name = name }
}

// WithHook attaches a lifecycle hook to the guard.
func WithHook(h Hook) Option {
	return func(g *Guard) { g.hook = h }
}

// New binds an action that runs unconditionally at scope exit. The returned
// guard's end of life must be wired up with defer at the binding site:
//
//	g := guard.New(func() { f.Close() })
//	defer g.Exit()
//
// New panics if fn is nil; for a statically valid action it never fails.
func New[A Action](fn A, opts ...Option) *Guard {
	return newGuard(normalize(fn), PolicyAlways, nil, opts)
}

// OnSuccess binds an action that runs at scope exit only while failing
// reports no propagating failure. The Signal requirement is structural:
// without a failure signal source, only New is available.
//
// OnSuccess panics if fn or failing is nil.
func OnSuccess[A Action](fn A, failing Signal, opts ...Option) *Guard {
	if failing == nil {
		panic("guard: nil signal")
	}
	return newGuard(normalize(fn), PolicyOnSuccess, failing, opts)
}

// OnFailure binds an action that runs at scope exit only while failing
// reports a propagating failure. Typical use is compensation: undoing
// partial work when the enclosing function returns an error.
//
// OnFailure panics if fn or failing is nil.
func OnFailure[A Action](fn A, failing Signal, opts ...Option) *Guard {
	if failing == nil {
		panic("guard: nil signal")
	}
	return newGuard(normalize(fn), PolicyOnFailure, failing, opts)
}

func newGuard(action func() error, policy Policy, failing Signal, opts []Option) *Guard {
	g := &Guard{
		action: action,
		signal: failing,
		policy: policy,
		active: true,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dismiss deactivates the guard without invoking the action. It is
// idempotent, may be called any number of times, and cannot fail.
func (g *Guard) Dismiss() {
	g.active = false
}

// Transfer moves the right to invoke the action to a new guard and
// deactivates the receiver, as one sequential step: at no point are two
// guards simultaneously able to fire the action. The new guard inherits the
// policy, signal, hook, name and the receiver's active state, so
// transferring a dismissed guard yields a dismissed guard.
//
// Transfer is the only way to relocate a guard between bindings; copying a
// Guard value is flagged by go vet.
func (g *Guard) Transfer() *Guard {
	ng := &Guard{
		action: g.action,
		signal: g.signal,
		policy: g.policy,
		hook:   g.hook,
		name:   g.name,
		active: g.active,
	}
	g.active = false
	g.action = nil
	g.emit(Event{Name: ng.name, Policy: ng.policy, Outcome: OutcomeTransferred})
	return ng
}

// Active reports whether the guard will attempt to invoke its action at
// scope exit.
func (g *Guard) Active() bool {
	return g.active && g.action != nil
}

// Policy returns the guard's exit policy.
func (g *Guard) Policy() Policy {
	return g.policy
}

// Name returns the guard's name; empty unless WithName was used.
func (g *Guard) Name() string {
	return g.name
}

// Exit runs the guard's end of life and is meant to be deferred at the
// binding site. If the guard is active and the policy approves, the action
// is invoked exactly once.
//
// An error or panic escaping the action terminates the process via stderr
// and a non-zero exit: a scope-exit handler that can fail is not composable
// with other unwinding in progress, so the failure is never allowed to
// propagate past Exit. The strict subpackage exists to rule this out at
// compile time.
//
// Exit is absorbing: after the first call the guard is spent, and further
// calls are no-ops.
func (g *Guard) Exit() {
	act := g.action
	g.action = nil
	if act == nil {
		// Already exited, or the action was transferred away.
		return
	}
	if !g.active {
		g.emit(Event{Name: g.name, Policy: g.policy, Outcome: OutcomeDismissed})
		return
	}
	g.active = false
	if !g.policy.shouldRun(g.signal) {
		g.emit(Event{Name: g.name, Policy: g.policy, Outcome: OutcomeSuppressed})
		return
	}

	defer func() {
		if r := recover(); r != nil {
			fatal("action panicked during scope exit", r)
		}
	}()

	start := time.Now()
	err := act()
	g.emit(Event{
		Name:     g.name,
		Policy:   g.policy,
		Outcome:  OutcomeFired,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		fatal("action failed during scope exit", err)
	}
}

func (g *Guard) emit(ev Event) {
	if g.hook != nil {
		g.hook(ev)
	}
}

// noCopy makes go vet (copylocks) flag copies of a Guard. Duplicating a
// guard would duplicate the right to invoke its action.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
