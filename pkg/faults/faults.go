// Package faults carries the error-kind taxonomy used to route instrument
// and target failures. Producers tag errors with a Kind; the managed
// callback layer switches on the kind instead of on concrete error types.
package faults

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure for dispatch-time routing.
type Kind int

const (
	Unknown Kind = iota
	// Config - bad plugin or run configuration; surfaces before execution.
	Config
	// Workload - the workload logic for the current job failed.
	Workload
	// Target - device-side command or transport failure; may be recoverable.
	Target
	// Timeout - a device operation timed out.
	Timeout
	// NotResponding - the target stopped answering liveness probes.
	NotResponding
	// Interrupted - user cancellation; always fatal to the run.
	Interrupted
	// Execution - the run was disrupted but recovered (e.g. a forced reboot).
	Execution
)

var kindNames = map[Kind]string{
	Unknown:       "unknown",
	Config:        "config",
	Workload:      "workload",
	Target:        "target",
	Timeout:       "timeout",
	NotResponding: "not-responding",
	Interrupted:   "interrupted",
	Execution:     "execution",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Fault is an error tagged with a Kind. It wraps an optional cause.
type Fault struct {
	kind  Kind
	msg   string
	cause error
}

func (f *Fault) Error() string {
	if f.cause != nil {
		return fmt.Sprintf("%s: %v", f.msg, f.cause)
	}
	return f.msg
}

func (f *Fault) Unwrap() error {
	return f.cause
}

func (f *Fault) Kind() Kind {
	return f.kind
}

// New returns a new fault of the given kind.
func New(kind Kind, msg string) error {
	return &Fault{kind: kind, msg: msg}
}

// Errorf returns a new formatted fault of the given kind.
func Errorf(kind Kind, format string, args ...interface{}) error {
	return &Fault{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap tags err with the given kind, preserving it as the cause.
// Returns nil when err is nil.
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &Fault{kind: kind, msg: msg, cause: err}
}

// KindOf reports the kind of err, unwrapping as needed. Context
// cancellation maps to Interrupted and deadline expiry to Timeout so
// stdlib errors route the same way as tagged ones. Untagged errors
// report Unknown.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.kind
	}
	if errors.Is(err, context.Canceled) {
		return Interrupted
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
