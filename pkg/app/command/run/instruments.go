package run

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rigtoolkit/rig/pkg/execution"
	"github.com/rigtoolkit/rig/pkg/faults"
	"github.com/rigtoolkit/rig/pkg/instrument"
	"github.com/rigtoolkit/rig/pkg/target"
)

func builtinInstruments(tm *target.Manager) []instrument.Instrument {
	return []instrument.Instrument{
		newExecTimer(),
		newStatusProbe(tm),
	}
}

// execTimer measures workload execution wall time. The start hook runs
// at very-fast priority and the stop hook at very-slow priority so the
// measurement brackets every other instrument's work.
type execTimer struct {
	mu      sync.Mutex
	started time.Time
	elapsed time.Duration
}

func newExecTimer() *execTimer {
	return &execTimer{}
}

func (t *execTimer) Name() string {
	return "execution-time"
}

func (t *execTimer) Validate() error {
	return nil
}

func (t *execTimer) Hooks() instrument.Hooks {
	return instrument.Hooks{
		Start:        instrument.VeryFast(t.onStart),
		Stop:         instrument.VerySlow(t.onStop),
		UpdateOutput: instrument.H(t.onUpdateOutput),
	}
}

func (t *execTimer) onStart(ctx *execution.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = time.Now()
	return nil
}

func (t *execTimer) onStop(ctx *execution.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.elapsed = time.Since(t.started)
	return nil
}

func (t *execTimer) onUpdateOutput(ctx *execution.Context) error {
	t.mu.Lock()
	elapsed := t.elapsed
	t.mu.Unlock()
	ctx.AddMetric("execution_time", elapsed.Seconds(), "seconds", true)
	return nil
}

// statusProbe records target health observations into the run event
// log: an uptime reading before each job and reboot notifications.
type statusProbe struct {
	tm  *target.Manager
	log *log.Entry
}

func newStatusProbe(tm *target.Manager) *statusProbe {
	return &statusProbe{
		tm:  tm,
		log: log.WithField("instrument", "status-probe"),
	}
}

func (p *statusProbe) Name() string {
	return "status-probe"
}

func (p *statusProbe) Validate() error {
	if p.tm == nil {
		return faults.New(faults.Config, "status-probe needs a target manager")
	}
	return nil
}

func (p *statusProbe) Hooks() instrument.Hooks {
	return instrument.Hooks{
		BeforeJob:   instrument.Fast(p.onBeforeJob),
		AfterReboot: instrument.H(p.onAfterReboot),
	}
}

func (p *statusProbe) onBeforeJob(ctx *execution.Context) error {
	out, err := p.tm.Target().Execute("uptime")
	if err != nil {
		return err
	}
	ctx.AddEvent("target " + out)
	return nil
}

func (p *statusProbe) onAfterReboot(ctx *execution.Context) error {
	p.log.Info("target was rebooted")
	ctx.AddEvent("target was rebooted")
	return nil
}
