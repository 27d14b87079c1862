package faults_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/rigtoolkit/rig/pkg/faults"
)

func TestKindOfTagged(t *testing.T) {
	err := faults.New(faults.Workload, "bad workload")
	if kind := faults.KindOf(err); kind != faults.Workload {
		t.Errorf("unexpected kind: %v", kind)
	}
}

func TestKindOfWrapped(t *testing.T) {
	inner := faults.New(faults.Target, "device error")
	wrapped := errors.Wrap(inner, "running probe")
	if kind := faults.KindOf(wrapped); kind != faults.Target {
		t.Errorf("kind lost through wrapping: %v", kind)
	}

	rewrapped := faults.Wrap(errors.New("io failure"), faults.Timeout, "pulling file")
	if kind := faults.KindOf(rewrapped); kind != faults.Timeout {
		t.Errorf("unexpected kind: %v", kind)
	}
}

func TestKindOfContextErrors(t *testing.T) {
	if kind := faults.KindOf(context.Canceled); kind != faults.Interrupted {
		t.Errorf("context.Canceled mapped to %v", kind)
	}
	if kind := faults.KindOf(context.DeadlineExceeded); kind != faults.Timeout {
		t.Errorf("context.DeadlineExceeded mapped to %v", kind)
	}
}

func TestKindOfUntagged(t *testing.T) {
	if kind := faults.KindOf(errors.New("whatever")); kind != faults.Unknown {
		t.Errorf("unexpected kind: %v", kind)
	}
}

func TestWrapNil(t *testing.T) {
	if err := faults.Wrap(nil, faults.Target, "noop"); err != nil {
		t.Errorf("wrapping nil produced %v", err)
	}
}

func TestIs(t *testing.T) {
	err := faults.Errorf(faults.NotResponding, "target %s is gone", "dev1")
	if !faults.Is(err, faults.NotResponding) {
		t.Error("expected not-responding kind")
	}
	if faults.Is(nil, faults.NotResponding) {
		t.Error("nil error must not match any kind")
	}
}
