// Package signal implements the lifecycle event dispatch core: a fixed
// signal vocabulary, a priority scale, and a per-run dispatcher that
// invokes connected callbacks in priority order.
package signal

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/rigtoolkit/rig/pkg/execution"
	"github.com/rigtoolkit/rig/pkg/faults"
)

// ErrNotConnected is returned by Disconnect when no matching
// registration exists for the callback/signal pair.
var ErrNotConnected = errors.New("callback is not connected to the signal")

// Callback is invoked when a signal it is connected to fires.
// Implementations are compared by interface value identity for
// Disconnect, so pointer receivers are expected.
type Callback interface {
	Call(ctx *execution.Context) error
}

type funcCallback struct {
	fn func(ctx *execution.Context) error
}

func (c *funcCallback) Call(ctx *execution.Context) error {
	return c.fn(ctx)
}

// Func adapts a plain function into a Callback. Every call returns a
// distinct identity; hold the returned value to Disconnect it later.
func Func(fn func(ctx *execution.Context) error) Callback {
	return &funcCallback{fn: fn}
}

type registration struct {
	cb       Callback
	priority Priority
	seq      uint64
}

// Dispatcher owns the callback registrations for one run. Dispatch is
// a synchronous, blocking call chain on the sender's goroutine;
// registration mutation is mutex-guarded.
type Dispatcher struct {
	mu    sync.Mutex
	seq   uint64
	conns map[*Signal][]registration
	log   *log.Entry
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		conns: map[*Signal][]registration{},
		log:   log.WithField("com", "signal"),
	}
}

// Connect registers cb for sig at the given priority. Registering the
// same callback more than once is allowed; the registrations are
// independent.
func (d *Dispatcher) Connect(cb Callback, sig *Signal, priority Priority) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	reg := registration{cb: cb, priority: priority, seq: d.seq}
	regs := d.conns[sig]

	// Insert before the first lower-priority entry; equal priorities
	// keep registration order.
	at := len(regs)
	for i, r := range regs {
		if r.priority < priority {
			at = i
			break
		}
	}
	regs = append(regs, registration{})
	copy(regs[at+1:], regs[at:])
	regs[at] = reg
	d.conns[sig] = regs

	d.log.WithFields(log.Fields{
		"signal":   sig.Name,
		"priority": priority.String(),
		"value":    int(priority),
	}).Debug("connected callback")
}

// Disconnect removes the oldest registration of cb under sig. Returns
// ErrNotConnected when there is none.
func (d *Dispatcher) Disconnect(cb Callback, sig *Signal) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	regs := d.conns[sig]
	for i, r := range regs {
		if r.cb == cb {
			d.conns[sig] = append(regs[:i:i], regs[i+1:]...)
			return nil
		}
	}
	return ErrNotConnected
}

// Send fires sig, invoking every connected callback in descending
// priority order, ties in registration order. Callback errors
// propagate to the caller unmodified and abort dispatch of the
// remaining callbacks; failure isolation for instrument callbacks
// happens in their managed wrappers, not here.
func (d *Dispatcher) Send(sig *Signal, ctx *execution.Context) error {
	d.mu.Lock()
	regs := make([]registration, len(d.conns[sig]))
	copy(regs, d.conns[sig])
	d.mu.Unlock()

	d.log.WithField("signal", sig.Name).Trace("sending")
	for _, r := range regs {
		if err := r.cb.Call(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Wrap brackets op with the named signal triplet: BEFORE fires first,
// SUCCESSFUL fires only when op returns nil, and AFTER always fires
// before Wrap returns, even when op fails. The first error encountered
// (op's error taking precedence) is returned.
func (d *Dispatcher) Wrap(ctx *execution.Context, name string, op func() error) error {
	b, ok := brackets[name]
	if !ok {
		return faults.Errorf(faults.Config, "unknown signal bracket %q", name)
	}

	if err := d.Send(b.before, ctx); err != nil {
		return err
	}

	opErr := op()
	if opErr == nil {
		opErr = d.Send(b.successful, ctx)
	}

	if err := d.Send(b.after, ctx); err != nil && opErr == nil {
		opErr = err
	}
	return opErr
}
