package instrument

import (
	"github.com/rigtoolkit/rig/pkg/execution"
	"github.com/rigtoolkit/rig/pkg/faults"
)

// managedCallback wraps one instrument hook so that its failures do
// not interfere with run execution. It is the single interception
// point for instrument-originated errors.
type managedCallback struct {
	owner    *Installed
	slot     string
	fn       HookFunc
	registry *Registry
}

// Call implements signal.Callback.
//
// The failure policy, in order:
//   - disabled instrument: skip;
//   - unresponsive target: skip (logged), to avoid cascading calls
//     into a dead device;
//   - interrupted / not-responding / timeout errors: re-propagate
//     unmodified, these are fatal to the run;
//   - workload errors: job status FAILED, run continues;
//   - target errors: trigger responsiveness verification, which may
//     recover via reboot;
//   - anything else: job status PARTIAL when a job is active,
//     otherwise propagate (no safe degraded scope exists).
func (m *managedCallback) Call(ctx *execution.Context) error {
	if !m.owner.IsEnabled() {
		return nil
	}
	if tm := ctx.TargetManager(); tm != nil && !tm.IsResponsive() {
		m.owner.log.WithField("slot", m.slot).
			Debug("target unresponsive; skipping callback")
		return nil
	}

	err := m.fn(ctx)
	if err == nil {
		return nil
	}

	switch faults.KindOf(err) {
	case faults.Interrupted, faults.NotResponding, faults.Timeout:
		return err
	}

	m.owner.log.WithError(err).WithField("slot", m.slot).
		Error("error in instrument")
	m.registry.noteFailure()
	ctx.AddEvent(err.Error())

	switch faults.KindOf(err) {
	case faults.Workload:
		ctx.SetStatus(execution.Failed)
	case faults.Target:
		if tm := ctx.TargetManager(); tm != nil {
			if verr := tm.VerifyResponsive(ctx.RebootPolicy.CanReboot); verr != nil {
				return verr
			}
		}
	default:
		if ctx.CurrentJob() != nil {
			ctx.SetStatus(execution.Partial)
		} else {
			return err
		}
	}
	return nil
}
