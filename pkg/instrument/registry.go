package instrument

import (
	"strings"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/rigtoolkit/rig/pkg/execution"
	"github.com/rigtoolkit/rig/pkg/faults"
	"github.com/rigtoolkit/rig/pkg/signal"
)

// Installed is one registered instrument instance plus its run-scoped
// state: enablement, the broken latch, and the signal registrations
// created at install time.
type Installed struct {
	inst    Instrument
	log     *log.Entry
	enabled int32
	broken  int32
	regs    []slotReg
}

type slotReg struct {
	cb  signal.Callback
	sig *signal.Signal
}

func (e *Installed) Name() string {
	return e.inst.Name()
}

func (e *Installed) Instrument() Instrument {
	return e.inst
}

func (e *Installed) IsEnabled() bool {
	return atomic.LoadInt32(&e.enabled) == 1
}

func (e *Installed) IsBroken() bool {
	return atomic.LoadInt32(&e.broken) == 1
}

// MarkBroken latches the instrument as broken; broken instruments
// refuse to be re-enabled.
func (e *Installed) MarkBroken() {
	atomic.StoreInt32(&e.broken, 1)
}

func (e *Installed) setEnabled(v bool) {
	if v {
		atomic.StoreInt32(&e.enabled, 1)
	} else {
		atomic.StoreInt32(&e.enabled, 0)
	}
}

// Registry tracks the instruments installed for one run and owns the
// process-level failure latch for that run. It is created alongside
// the dispatcher at run start and discarded at run end.
type Registry struct {
	mu         sync.Mutex
	dispatcher *signal.Dispatcher
	installed  []*Installed
	failures   int32
	log        *log.Entry
}

func NewRegistry(d *signal.Dispatcher) *Registry {
	return &Registry{
		dispatcher: d,
		log:        log.WithField("com", "instruments"),
	}
}

// identifier normalizes instrument names for lookup: lower case with
// dashes and spaces folded to underscores.
func identifier(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, " ", "_")
	return name
}

// Install connects the instrument's declared hooks to their signals
// (each wrapped in a managed callback at the hook's priority) and
// records it in the registry. Installing an instrument whose name is
// already installed is an error.
func (r *Registry) Install(inst Instrument, ctx *execution.Context) (*Installed, error) {
	name := inst.Name()
	if identifier(name) == "" {
		return nil, faults.New(faults.Config, "instrument has no name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lookupLocked(inst) != nil {
		return nil, faults.Errorf(faults.Config, "instrument %s is already installed", name)
	}

	r.log.WithField("instrument", name).Debug("installing instrument")

	entry := &Installed{
		inst:    inst,
		enabled: 1,
		log:     r.log.WithFields(log.Fields{"instrument": name, "run": ctx.RunID}),
	}

	hooks := inst.Hooks()
	for _, sd := range slotMap {
		h := sd.get(hooks)
		if h.Fn == nil {
			continue
		}
		entry.log.WithFields(log.Fields{
			"slot":     sd.name,
			"signal":   sd.sig.Name,
			"priority": h.Priority.String(),
			"value":    int(h.Priority),
		}).Debug("connecting hook")

		mc := &managedCallback{owner: entry, slot: sd.name, fn: h.Fn, registry: r}
		r.dispatcher.Connect(mc, sd.sig, h.Priority)
		entry.regs = append(entry.regs, slotReg{cb: mc, sig: sd.sig})
	}

	r.installed = append(r.installed, entry)
	return entry, nil
}

// Uninstall removes the instrument and disconnects the registrations
// made at install time, so a later reinstall does not double-fire.
// Fails when the instrument is not installed.
func (r *Registry) Uninstall(ref interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.lookupLocked(ref)
	if entry == nil {
		return faults.Errorf(faults.Config, "instrument %v is not installed", ref)
	}

	for _, reg := range entry.regs {
		if err := r.dispatcher.Disconnect(reg.cb, reg.sig); err != nil {
			entry.log.WithError(err).WithField("signal", reg.sig.Name).
				Debug("registration already gone")
		}
	}
	entry.regs = nil

	for i, e := range r.installed {
		if e == entry {
			r.installed = append(r.installed[:i:i], r.installed[i+1:]...)
			break
		}
	}
	entry.log.Debug("uninstalled instrument")
	return nil
}

// Lookup resolves an instrument reference: an *Installed entry, an
// Instrument instance, or a name string.
func (r *Registry) Lookup(ref interface{}) (*Installed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry := r.lookupLocked(ref); entry != nil {
		return entry, nil
	}
	return nil, faults.Errorf(faults.Config, "instrument %v is not installed", ref)
}

func (r *Registry) lookupLocked(ref interface{}) *Installed {
	switch v := ref.(type) {
	case *Installed:
		for _, e := range r.installed {
			if e == v {
				return e
			}
		}
	case Instrument:
		for _, e := range r.installed {
			if e.inst == v || identifier(e.Name()) == identifier(v.Name()) {
				return e
			}
		}
	case string:
		for _, e := range r.installed {
			if identifier(e.Name()) == identifier(v) {
				return e
			}
		}
	}
	return nil
}

// IsInstalled reports whether the reference resolves to an installed
// instrument.
func (r *Registry) IsInstalled(ref interface{}) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupLocked(ref) != nil
}

// Validate runs every installed instrument's Validate check.
func (r *Registry) Validate() error {
	for _, e := range r.snapshot() {
		if err := e.inst.Validate(); err != nil {
			return faults.Wrap(err, faults.Config, "instrument "+e.Name())
		}
	}
	return nil
}

// Enable enables the referenced instruments. Enabling a broken
// instrument is a logged no-op.
func (r *Registry) Enable(refs ...interface{}) error {
	for _, ref := range refs {
		entry, err := r.Lookup(ref)
		if err != nil {
			return err
		}
		r.enableEntry(entry)
	}
	return nil
}

// Disable disables the referenced instruments.
func (r *Registry) Disable(refs ...interface{}) error {
	for _, ref := range refs {
		entry, err := r.Lookup(ref)
		if err != nil {
			return err
		}
		r.disableEntry(entry)
	}
	return nil
}

// EnableAll enables every installed instrument (broken ones stay off).
func (r *Registry) EnableAll() {
	for _, e := range r.snapshot() {
		r.enableEntry(e)
	}
}

// DisableAll disables every installed instrument.
func (r *Registry) DisableAll() {
	for _, e := range r.snapshot() {
		r.disableEntry(e)
	}
}

func (r *Registry) enableEntry(e *Installed) {
	if e.IsBroken() {
		e.log.Debug("not enabling broken instrument")
		return
	}
	e.log.Debug("enabling instrument")
	e.setEnabled(true)
}

func (r *Registry) disableEntry(e *Installed) {
	if e.IsEnabled() {
		e.log.Debug("disabling instrument")
		e.setEnabled(false)
	}
}

// GetEnabled returns the currently enabled instruments in install order.
func (r *Registry) GetEnabled() []*Installed {
	var out []*Installed
	for _, e := range r.snapshot() {
		if e.IsEnabled() {
			out = append(out, e)
		}
	}
	return out
}

// GetDisabled returns the currently disabled instruments in install order.
func (r *Registry) GetDisabled() []*Installed {
	var out []*Installed
	for _, e := range r.snapshot() {
		if !e.IsEnabled() {
			out = append(out, e)
		}
	}
	return out
}

func (r *Registry) snapshot() []*Installed {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Installed, len(r.installed))
	copy(out, r.installed)
	return out
}

// CheckFailures reports whether any instrument callback has failed
// since the last check, and clears the latch.
func (r *Registry) CheckFailures() bool {
	return atomic.SwapInt32(&r.failures, 0) == 1
}

func (r *Registry) noteFailure() {
	atomic.StoreInt32(&r.failures, 1)
}
