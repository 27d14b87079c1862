package signal_test

import (
	"errors"
	"testing"

	"github.com/rigtoolkit/rig/pkg/execution"
	"github.com/rigtoolkit/rig/pkg/signal"
)

func newCtx() *execution.Context {
	return execution.NewContext(execution.RebootPolicy{})
}

// recorder appends a tag to a shared visit log when called.
func recorder(visits *[]string, tag string) signal.Callback {
	return signal.Func(func(ctx *execution.Context) error {
		*visits = append(*visits, tag)
		return nil
	})
}

func TestSendPriorityOrder(t *testing.T) {
	d := signal.NewDispatcher()
	var visits []string

	d.Connect(recorder(&visits, "slow"), signal.JobStarted, signal.Slow)
	d.Connect(recorder(&visits, "very_fast"), signal.JobStarted, signal.VeryFast)
	d.Connect(recorder(&visits, "normal"), signal.JobStarted, signal.Normal)
	d.Connect(recorder(&visits, "fast"), signal.JobStarted, signal.Fast)
	d.Connect(recorder(&visits, "very_slow"), signal.JobStarted, signal.VerySlow)

	if err := d.Send(signal.JobStarted, newCtx()); err != nil {
		t.Fatal("unexpected send error:", err)
	}

	want := []string{"very_fast", "fast", "normal", "slow", "very_slow"}
	if len(visits) != len(want) {
		t.Fatalf("visited %v, want %v", visits, want)
	}
	for i := range want {
		if visits[i] != want[i] {
			t.Fatalf("visited %v, want %v", visits, want)
		}
	}
}

func TestSendEqualPriorityKeepsRegistrationOrder(t *testing.T) {
	d := signal.NewDispatcher()
	var visits []string

	for _, tag := range []string{"a", "b", "c", "d"} {
		d.Connect(recorder(&visits, tag), signal.RunStarted, signal.Normal)
	}

	if err := d.Send(signal.RunStarted, newCtx()); err != nil {
		t.Fatal("unexpected send error:", err)
	}
	if got := len(visits); got != 4 {
		t.Fatalf("visited %d callbacks", got)
	}
	for i, tag := range []string{"a", "b", "c", "d"} {
		if visits[i] != tag {
			t.Fatalf("visited %v, not stable", visits)
		}
	}
}

func TestFastBeforeSlowScenario(t *testing.T) {
	d := signal.NewDispatcher()
	var visits []string

	d.Connect(recorder(&visits, "A"), signal.BeforeJob, signal.Fast)
	d.Connect(recorder(&visits, "B"), signal.BeforeJob, signal.Slow)

	if err := d.Send(signal.BeforeJob, newCtx()); err != nil {
		t.Fatal("unexpected send error:", err)
	}
	if len(visits) != 2 || visits[0] != "A" || visits[1] != "B" {
		t.Fatalf("visited %v, want [A B]", visits)
	}
}

func TestDuplicateRegistrationsAreIndependent(t *testing.T) {
	d := signal.NewDispatcher()
	count := 0
	cb := signal.Func(func(ctx *execution.Context) error {
		count++
		return nil
	})

	d.Connect(cb, signal.RunCompleted, signal.Normal)
	d.Connect(cb, signal.RunCompleted, signal.Normal)

	if err := d.Send(signal.RunCompleted, newCtx()); err != nil {
		t.Fatal("unexpected send error:", err)
	}
	if count != 2 {
		t.Errorf("callback invoked %d times, want 2", count)
	}

	if err := d.Disconnect(cb, signal.RunCompleted); err != nil {
		t.Fatal("unexpected disconnect error:", err)
	}
	count = 0
	if err := d.Send(signal.RunCompleted, newCtx()); err != nil {
		t.Fatal("unexpected send error:", err)
	}
	if count != 1 {
		t.Errorf("callback invoked %d times after one disconnect, want 1", count)
	}
}

func TestDisconnectUnknown(t *testing.T) {
	d := signal.NewDispatcher()
	cb := signal.Func(func(ctx *execution.Context) error { return nil })

	if err := d.Disconnect(cb, signal.RunStarted); !errors.Is(err, signal.ErrNotConnected) {
		t.Errorf("unexpected disconnect error: %v", err)
	}
}

func TestSendPropagatesCallbackError(t *testing.T) {
	d := signal.NewDispatcher()
	boom := errors.New("boom")
	var after int

	d.Connect(signal.Func(func(ctx *execution.Context) error { return boom }),
		signal.RunStarted, signal.Fast)
	d.Connect(signal.Func(func(ctx *execution.Context) error {
		after++
		return nil
	}), signal.RunStarted, signal.Slow)

	if err := d.Send(signal.RunStarted, newCtx()); !errors.Is(err, boom) {
		t.Fatalf("unexpected send error: %v", err)
	}
	if after != 0 {
		t.Error("dispatch continued past a failing callback")
	}
}

func TestWrapSuccess(t *testing.T) {
	d := signal.NewDispatcher()
	var visits []string

	d.Connect(recorder(&visits, "before"), signal.BeforeReboot, signal.Normal)
	d.Connect(recorder(&visits, "successful"), signal.SuccessfulReboot, signal.Normal)
	d.Connect(recorder(&visits, "after"), signal.AfterReboot, signal.Normal)

	ran := false
	err := d.Wrap(newCtx(), signal.WrapReboot, func() error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatal("unexpected wrap error:", err)
	}
	if !ran {
		t.Fatal("wrapped operation did not run")
	}
	want := []string{"before", "successful", "after"}
	for i := range want {
		if i >= len(visits) || visits[i] != want[i] {
			t.Fatalf("visited %v, want %v", visits, want)
		}
	}
}

func TestWrapEmitsAfterOnFailure(t *testing.T) {
	d := signal.NewDispatcher()
	var visits []string
	boom := errors.New("op failed")

	d.Connect(recorder(&visits, "before"), signal.BeforeTargetConnect, signal.Normal)
	d.Connect(recorder(&visits, "successful"), signal.SuccessfulTargetConnect, signal.Normal)
	d.Connect(recorder(&visits, "after"), signal.AfterTargetConnect, signal.Normal)

	err := d.Wrap(newCtx(), signal.WrapTargetConnect, func() error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("unexpected wrap error: %v", err)
	}
	if len(visits) != 2 || visits[0] != "before" || visits[1] != "after" {
		t.Fatalf("visited %v, want [before after]", visits)
	}
}

func TestWrapUnknownBracket(t *testing.T) {
	d := signal.NewDispatcher()
	if err := d.Wrap(newCtx(), "NO_SUCH_BRACKET", func() error { return nil }); err == nil {
		t.Error("expected an error for an unknown bracket name")
	}
}

func TestParsePriority(t *testing.T) {
	if p, err := signal.ParsePriority("fast"); err != nil || p != signal.Fast {
		t.Errorf("ParsePriority(fast) = %v, %v", p, err)
	}
	if p, err := signal.ParsePriority("Very-Slow"); err != nil || p != signal.VerySlow {
		t.Errorf("ParsePriority(Very-Slow) = %v, %v", p, err)
	}
	if p, err := signal.ParsePriority(42); err != nil || p != signal.Priority(42) {
		t.Errorf("ParsePriority(42) = %v, %v", p, err)
	}
	if _, err := signal.ParsePriority("sluggish"); err == nil {
		t.Error("expected an error for an unknown priority name")
	}
	if _, err := signal.ParsePriority(3.14); err == nil {
		t.Error("expected an error for a non-integer priority")
	}
}
