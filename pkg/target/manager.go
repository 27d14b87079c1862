package target

import (
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/rigtoolkit/rig/pkg/execution"
	"github.com/rigtoolkit/rig/pkg/faults"
	"github.com/rigtoolkit/rig/pkg/signal"
)

// Info is the capability snapshot discovered at session start.
type Info struct {
	TargetType string
	CPUCount   int
	OnlineCPUs []int
	Features   []Feature
}

// Manager owns the connection lifecycle of one target device and its
// companion assistant. It is the single source of truth for the
// session's responsiveness, consulted by managed callbacks before any
// instrument logic runs.
type Manager struct {
	name       string
	opts       Options
	desc       *Descriptor
	target     Target
	assistant  Assistant
	dispatcher *signal.Dispatcher
	ctx        *execution.Context
	responsive int32
	log        *log.Entry

	infoOnce sync.Once
	info     Info
}

// NewManager resolves the target type, connects to the device (the
// connect is bracketed with target-connect signals), runs device
// setup, discovers capabilities, and instantiates the assistant.
//
// When the target supports CPU hotplug, every CPU is onlined before
// capability discovery so discovery sees full CPU visibility, and the
// original offline set is restored afterwards.
func NewManager(name string, opts Options, d *signal.Dispatcher, ctx *execution.Context) (*Manager, error) {
	desc, ok := LookupDescriptor(name)
	if !ok {
		return nil, faults.Errorf(faults.Config, "unknown target type %q", name)
	}

	m := &Manager{
		name:       name,
		opts:       opts,
		desc:       desc,
		dispatcher: d,
		ctx:        ctx,
		log:        log.WithFields(log.Fields{"com": "tm", "target": name}),
	}

	m.log.Debug("creating target")
	tgt, err := desc.NewTarget(opts)
	if err != nil {
		return nil, faults.Wrap(err, faults.Target, "creating target "+name)
	}
	m.target = tgt
	atomic.StoreInt32(&m.responsive, 1)

	// Instrument callbacks fired by the connect signals consult the
	// session's responsiveness, so the back-reference goes in first.
	ctx.AttachTargetManager(m)

	if err := d.Wrap(ctx, signal.WrapTargetConnect, tgt.Connect); err != nil {
		return nil, err
	}

	m.log.Info("setting up target")
	if err := tgt.Setup(); err != nil {
		return nil, faults.Wrap(err, faults.Target, "target setup")
	}

	if tgt.Has(FeatureHotplug) {
		if err := m.discoverWithAllCPUsOnline(); err != nil {
			return nil, err
		}
	} else {
		m.discover()
	}

	assistant, err := desc.NewAssistant(opts, tgt)
	if err != nil {
		return nil, faults.Wrap(err, faults.Target, "creating assistant for "+name)
	}
	m.assistant = assistant

	return m, nil
}

func (m *Manager) discoverWithAllCPUsOnline() error {
	online, err := m.target.ListOnlineCPUs()
	if err != nil {
		return faults.Wrap(err, faults.Target, "listing online cpus")
	}

	if err := m.target.Hotplug().OnlineAll(); err != nil {
		// Discovery still runs; some information may be incomplete.
		m.log.WithError(err).Debug("failed to online all cpus")
	}

	m.discover()

	wasOnline := map[int]bool{}
	for _, cpu := range online {
		wasOnline[cpu] = true
	}
	var restore []int
	for cpu := 0; cpu < m.target.NumberOfCPUs(); cpu++ {
		if !wasOnline[cpu] {
			restore = append(restore, cpu)
		}
	}
	if len(restore) > 0 {
		if err := m.target.Hotplug().Offline(restore...); err != nil {
			return faults.Wrap(err, faults.Target, "restoring offline cpus")
		}
	}
	return nil
}

func (m *Manager) discover() {
	m.infoOnce.Do(func() {
		m.info = Info{
			TargetType: m.name,
			CPUCount:   m.target.NumberOfCPUs(),
		}
		if online, err := m.target.ListOnlineCPUs(); err == nil {
			m.info.OnlineCPUs = online
		}
		for _, f := range KnownFeatures {
			if m.target.Has(f) {
				m.info.Features = append(m.info.Features, f)
			}
		}
	})
}

// Info returns the capability snapshot taken during construction.
func (m *Manager) Info() Info {
	m.discover()
	return m.info
}

// Target returns the underlying device transport.
func (m *Manager) Target() Target {
	return m.target
}

// Start starts the companion assistant.
func (m *Manager) Start() error {
	return m.assistant.Start()
}

// Stop stops the companion assistant.
func (m *Manager) Stop() error {
	return m.assistant.Stop()
}

// ExtractResults pulls collected results from the assistant into the
// run context.
func (m *Manager) ExtractResults(ctx *execution.Context) error {
	return m.assistant.ExtractResults(ctx)
}

// IsResponsive reports the session's responsiveness flag.
func (m *Manager) IsResponsive() bool {
	return atomic.LoadInt32(&m.responsive) == 1
}

// Reboot reboots the target, bracketed with reboot signals regardless
// of the outcome.
func (m *Manager) Reboot(ctx *execution.Context, hard bool) error {
	return m.dispatcher.Wrap(ctx, signal.WrapReboot, func() error {
		return m.target.Reboot(hard)
	})
}

// VerifyResponsive probes the target and, when it is unresponsive,
// attempts recovery. A successful hard-reset recovery still returns an
// execution-kind error: the caller must know a reboot occurred even
// though the session is live again. With reboots disallowed or hard
// reset unsupported, the failure is a fatal not-responding error and
// the session stays marked unresponsive.
func (m *Manager) VerifyResponsive(canReboot bool) error {
	ok, _ := m.target.CheckResponsive(false)
	if ok {
		return nil
	}

	atomic.StoreInt32(&m.responsive, 0)

	if !canReboot {
		return faults.New(faults.NotResponding,
			"target unresponsive and is not allowed to reboot")
	}
	if m.target.Has(FeatureHardReset) {
		m.log.Info("target unresponsive; performing hard reset")
		if err := m.Reboot(m.ctx, true); err != nil {
			return err
		}
		atomic.StoreInt32(&m.responsive, 1)
		return faults.New(faults.Execution,
			"target became unresponsive but was recovered")
	}
	return faults.New(faults.NotResponding,
		"target unresponsive and hard reset not supported; bailing")
}

// Finalize tears the session down. The target is disconnected when the
// disconnect-on-exit option is set, or unconditionally for simulated
// platforms; the disconnect is bracketed with disconnect signals.
func (m *Manager) Finalize() error {
	if !m.opts.Disconnect && !m.desc.Simulated {
		return nil
	}
	m.log.Info("disconnecting from the device")
	return m.dispatcher.Wrap(m.ctx, signal.WrapTargetDisconnect, m.target.Disconnect)
}
