package strict_test

import (
	"errors"
	"testing"

	"github.com/jonwraymond/scopeops/guard"
	"github.com/jonwraymond/scopeops/guard/strict"
)

func TestNew_FiresOnExit(t *testing.T) {
	fired := false
	g := strict.New(func() { fired = true })

	g.Exit()

	if !fired {
		t.Errorf("action not invoked at scope exit")
	}
}

func TestNew_Dismiss(t *testing.T) {
	count := 0
	g := strict.New(func() { count++ })

	g.Dismiss()
	g.Exit()

	if count != 0 {
		t.Errorf("action invoked %d times after Dismiss, want 0", count)
	}
}

func TestOnSuccess(t *testing.T) {
	var err error
	fired := false
	g := strict.OnSuccess(func() { fired = true }, guard.Failure(&err))

	g.Exit()

	if !fired {
		t.Errorf("on-success action did not fire on normal exit")
	}
}

func TestOnFailure(t *testing.T) {
	fired := false

	run := func() (err error) {
		g := strict.OnFailure(func() { fired = true }, guard.Failure(&err))
		defer g.Exit()

		return errors.New("boom")
	}

	_ = run()
	if !fired {
		t.Errorf("on-failure action did not fire on error propagation")
	}
}

func TestNew_Options(t *testing.T) {
	var got guard.Event
	g := strict.New(func() {}, guard.WithName("strict-close"), guard.WithHook(func(ev guard.Event) {
		got = ev
	}))

	g.Exit()

	if got.Name != "strict-close" {
		t.Errorf("event Name = %q, want %q", got.Name, "strict-close")
	}
	if got.Outcome != guard.OutcomeFired {
		t.Errorf("event Outcome = %v, want fired", got.Outcome)
	}
}
