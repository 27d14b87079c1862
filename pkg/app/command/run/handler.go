package run

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"

	"github.com/rigtoolkit/rig/pkg/app/signals"
	"github.com/rigtoolkit/rig/pkg/execution"
	"github.com/rigtoolkit/rig/pkg/faults"
	"github.com/rigtoolkit/rig/pkg/instrument"
	"github.com/rigtoolkit/rig/pkg/signal"
	"github.com/rigtoolkit/rig/pkg/target"
	"github.com/rigtoolkit/rig/pkg/util/errutil"
)

// Config is the parsed run command configuration.
type Config struct {
	Target      string
	Workload    string
	Jobs        int
	Disconnect  bool
	AllowReboot bool
	Disable     []string
	NoColor     bool
}

// OnCommand drives one measurement session: connect the target session,
// install the built-in instruments, run the job loop with full signal
// bracketing, then extract and print the results.
func OnCommand(cfg Config) error {
	if cfg.NoColor {
		color.NoColor = true
	}

	dispatcher := signal.NewDispatcher()
	ctx := execution.NewContext(execution.RebootPolicy{CanReboot: cfg.AllowReboot})
	log.AddHook(signal.NewLogHook(dispatcher, ctx))

	registry := instrument.NewRegistry(dispatcher)

	tm, err := target.NewManager(cfg.Target, target.Options{Disconnect: cfg.Disconnect}, dispatcher, ctx)
	if err != nil {
		return err
	}

	for _, inst := range builtinInstruments(tm) {
		if _, err := registry.Install(inst, ctx); err != nil {
			return err
		}
	}
	if err := registry.Validate(); err != nil {
		return err
	}
	for _, name := range cfg.Disable {
		if err := registry.Disable(name); err != nil {
			return err
		}
	}

	runErr := runJobs(cfg, dispatcher, ctx, registry, tm)

	errutil.WarnOn(tm.Finalize())

	if registry.CheckFailures() {
		color.Yellow("instrument failures were detected during the run")
	}
	printSummary(ctx, runErr)
	return runErr
}

func runJobs(
	cfg Config,
	dispatcher *signal.Dispatcher,
	ctx *execution.Context,
	registry *instrument.Registry,
	tm *target.Manager,
) error {
	if err := dispatcher.Send(signal.RunInitialized, ctx); err != nil {
		return err
	}
	ctx.SetStatus(execution.Running)
	if err := dispatcher.Send(signal.RunStarted, ctx); err != nil {
		return err
	}

	for i := 0; i < cfg.Jobs; i++ {
		select {
		case <-signals.AppInterruptChan:
			ctx.SetStatus(execution.Aborted)
			if err := dispatcher.Send(signal.JobAborted, ctx); err != nil {
				return err
			}
			return faults.New(faults.Interrupted, "run aborted by user")
		default:
		}

		if err := runOneJob(cfg, dispatcher, ctx, tm, i); err != nil {
			switch faults.KindOf(err) {
			case faults.Interrupted, faults.NotResponding, faults.Timeout:
				return err
			}
			log.WithError(err).WithField("iter", i).Error("job failed")
		}
	}

	ctx.SetStatus(execution.OK)
	if err := dispatcher.Send(signal.RunCompleted, ctx); err != nil {
		return err
	}
	return dispatcher.Send(signal.RunFinalized, ctx)
}

func runOneJob(
	cfg Config,
	dispatcher *signal.Dispatcher,
	ctx *execution.Context,
	tm *target.Manager,
	iteration int,
) error {
	job := ctx.BeginJob(cfg.Workload, iteration)
	defer ctx.EndJob()

	if err := dispatcher.Send(signal.JobStarted, ctx); err != nil {
		return err
	}

	jobErr := dispatcher.Wrap(ctx, signal.WrapJob, func() error {
		if err := dispatcher.Wrap(ctx, signal.WrapWorkloadSetup, tm.Start); err != nil {
			return err
		}

		execErr := dispatcher.Wrap(ctx, signal.WrapWorkloadExecution, func() error {
			out, err := tm.Target().Execute(cfg.Workload)
			if err != nil {
				return err
			}
			collectScores(ctx, out)
			return nil
		})

		if err := dispatcher.Wrap(ctx, signal.WrapWorkloadOutputUpdate, func() error {
			return tm.ExtractResults(ctx)
		}); err != nil && execErr == nil {
			execErr = err
		}
		if err := dispatcher.Wrap(ctx, signal.WrapWorkloadTeardown, tm.Stop); err != nil && execErr == nil {
			execErr = err
		}
		return execErr
	})

	if jobErr != nil {
		ctx.SetStatus(execution.Failed)
		if err := dispatcher.Send(signal.JobFailed, ctx); err != nil {
			return err
		}
		return jobErr
	}

	log.WithFields(log.Fields{"job": job.ID, "iter": iteration}).Info("job completed")
	return dispatcher.Send(signal.JobCompleted, ctx)
}

// collectScores picks "score=<n>" markers out of workload output and
// records them as metrics.
func collectScores(ctx *execution.Context, out string) {
	for _, line := range strings.Split(out, "\n") {
		idx := strings.Index(line, "score=")
		if idx < 0 {
			continue
		}
		field := line[idx+len("score="):]
		if cut := strings.IndexAny(field, " \t"); cut >= 0 {
			field = field[:cut]
		}
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			log.WithField("line", line).Debug("unparsable score marker")
			continue
		}
		ctx.AddMetric("score", value, "points", false)
	}
}

func printSummary(ctx *execution.Context, runErr error) {
	metrics := ctx.Metrics()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Metric", "Value", "Units", "Lower Is Better"})
	for _, m := range metrics {
		t.AppendRow(table.Row{m.Name, m.Value, m.Units, m.LowerIsBetter})
	}
	t.Render()

	status := fmt.Sprintf("run %s - status=%s metrics=%d events=%d elapsed=%s",
		ctx.RunID, ctx.Status(), len(metrics), len(ctx.Events()),
		ctx.Elapsed().Round(time.Millisecond))
	if runErr != nil {
		color.Red(status)
		return
	}
	color.Green(status)
}
