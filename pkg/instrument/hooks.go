// Package instrument manages observer plugins ("instruments") that
// react to lifecycle signals: the plugin hook contract, the installed
// instrument registry, and the managed callback wrapper that isolates
// plugin failures from run execution.
package instrument

import (
	"github.com/rigtoolkit/rig/pkg/execution"
	"github.com/rigtoolkit/rig/pkg/signal"
)

// HookFunc is one instrument callback. It receives the run execution
// context and reports failures through its error.
type HookFunc func(ctx *execution.Context) error

// Hook binds a callback to a dispatch priority. Priority is a property
// of the callable, not of the signal it ends up connected to.
type Hook struct {
	Fn       HookFunc
	Priority signal.Priority
}

// H wraps fn at normal priority.
func H(fn HookFunc) Hook {
	return Hook{Fn: fn, Priority: signal.Normal}
}

// At wraps fn at an explicit priority (named level or custom value).
func At(p signal.Priority, fn HookFunc) Hook {
	return Hook{Fn: fn, Priority: p}
}

// Named-level shorthands mirroring the priority scale.
func VerySlow(fn HookFunc) Hook { return At(signal.VerySlow, fn) }
func Slow(fn HookFunc) Hook     { return At(signal.Slow, fn) }
func Fast(fn HookFunc) Hook     { return At(signal.Fast, fn) }
func VeryFast(fn HookFunc) Hook { return At(signal.VeryFast, fn) }

// Hooks is the set of optional lifecycle slots an instrument may
// declare. A zero slot (nil Fn) is simply not connected; instruments
// declare only what they need.
type Hooks struct {
	// Workload-style aliases for the common slots.
	Initialize            Hook
	Setup                 Hook
	Start                 Hook
	Stop                  Hook
	ProcessWorkloadOutput Hook
	UpdateOutput          Hook
	Teardown              Hook
	Finalize              Hook

	OnRunStart Hook
	OnRunEnd   Hook

	OnJobStart   Hook
	OnJobRestart Hook
	OnJobEnd     Hook
	OnJobFailure Hook
	OnJobAbort   Hook

	BeforeJob       Hook
	OnSuccessfulJob Hook
	AfterJob        Hook

	BeforeProcessingJobOutput  Hook
	OnSuccessfullyProcessedJob Hook
	AfterProcessingJobOutput   Hook

	BeforeReboot     Hook
	OnSuccessfulReboot Hook
	AfterReboot      Hook

	OnError   Hook
	OnWarning Hook
}

// slotDef maps one named hook slot onto the signal it is connected to.
// The table order is the connection order, which fixes the tie-break
// order for hooks installed at equal priority.
type slotDef struct {
	name string
	sig  *signal.Signal
	get  func(h Hooks) Hook
}

var slotMap = []slotDef{
	{"initialize", signal.RunInitialized, func(h Hooks) Hook { return h.Initialize }},
	{"setup", signal.BeforeWorkloadSetup, func(h Hooks) Hook { return h.Setup }},
	{"start", signal.BeforeWorkloadExecution, func(h Hooks) Hook { return h.Start }},
	{"stop", signal.AfterWorkloadExecution, func(h Hooks) Hook { return h.Stop }},
	{"process_workload_output", signal.SuccessfulWorkloadOutputUpdate, func(h Hooks) Hook { return h.ProcessWorkloadOutput }},
	{"update_output", signal.AfterWorkloadOutputUpdate, func(h Hooks) Hook { return h.UpdateOutput }},
	{"teardown", signal.AfterWorkloadTeardown, func(h Hooks) Hook { return h.Teardown }},
	{"finalize", signal.RunFinalized, func(h Hooks) Hook { return h.Finalize }},

	{"on_run_start", signal.RunStarted, func(h Hooks) Hook { return h.OnRunStart }},
	{"on_run_end", signal.RunCompleted, func(h Hooks) Hook { return h.OnRunEnd }},

	{"on_job_start", signal.JobStarted, func(h Hooks) Hook { return h.OnJobStart }},
	{"on_job_restart", signal.JobRestarted, func(h Hooks) Hook { return h.OnJobRestart }},
	{"on_job_end", signal.JobCompleted, func(h Hooks) Hook { return h.OnJobEnd }},
	{"on_job_failure", signal.JobFailed, func(h Hooks) Hook { return h.OnJobFailure }},
	{"on_job_abort", signal.JobAborted, func(h Hooks) Hook { return h.OnJobAbort }},

	{"before_job", signal.BeforeJob, func(h Hooks) Hook { return h.BeforeJob }},
	{"on_successful_job", signal.SuccessfulJob, func(h Hooks) Hook { return h.OnSuccessfulJob }},
	{"after_job", signal.AfterJob, func(h Hooks) Hook { return h.AfterJob }},

	{"before_processing_job_output", signal.BeforeJobOutputProcessed, func(h Hooks) Hook { return h.BeforeProcessingJobOutput }},
	{"on_successfully_processed_job", signal.SuccessfulJobOutputProcessed, func(h Hooks) Hook { return h.OnSuccessfullyProcessedJob }},
	{"after_processing_job_output", signal.AfterJobOutputProcessed, func(h Hooks) Hook { return h.AfterProcessingJobOutput }},

	{"before_reboot", signal.BeforeReboot, func(h Hooks) Hook { return h.BeforeReboot }},
	{"on_successful_reboot", signal.SuccessfulReboot, func(h Hooks) Hook { return h.OnSuccessfulReboot }},
	{"after_reboot", signal.AfterReboot, func(h Hooks) Hook { return h.AfterReboot }},

	{"on_error", signal.ErrorLogged, func(h Hooks) Hook { return h.OnError }},
	{"on_warning", signal.WarningLogged, func(h Hooks) Hook { return h.OnWarning }},
}

// Instrument is the plugin contract: a unique name, a configuration
// check, and the declared lifecycle hooks.
type Instrument interface {
	Name() string
	Validate() error
	Hooks() Hooks
}
