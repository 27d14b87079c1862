package execution_test

import (
	"testing"

	"github.com/rigtoolkit/rig/pkg/execution"
)

func TestStatusScoping(t *testing.T) {
	ctx := execution.NewContext(execution.RebootPolicy{})
	if ctx.RunID == "" {
		t.Fatal("missing run id")
	}

	ctx.SetStatus(execution.Running)
	if ctx.Status() != execution.Running {
		t.Errorf("run status = %v", ctx.Status())
	}

	job := ctx.BeginJob("bench", 0)
	if job.ID == "" || job.Workload != "bench" {
		t.Fatalf("unexpected job: %+v", job)
	}
	ctx.SetStatus(execution.Partial)
	if job.Status != execution.Partial {
		t.Errorf("job status = %v", job.Status)
	}

	ctx.EndJob()
	if ctx.CurrentJob() != nil {
		t.Error("job still current after EndJob")
	}
	// The run status was untouched by job-scoped updates.
	if ctx.Status() != execution.Running {
		t.Errorf("run status = %v after job", ctx.Status())
	}
}

func TestFailedStatusIsSticky(t *testing.T) {
	ctx := execution.NewContext(execution.RebootPolicy{})
	ctx.BeginJob("bench", 0)
	ctx.SetStatus(execution.Failed)
	ctx.SetStatus(execution.Partial)
	if got := ctx.Status(); got != execution.Failed {
		t.Errorf("status = %v, want FAILED", got)
	}
}

func TestJobDefaultsToOK(t *testing.T) {
	ctx := execution.NewContext(execution.RebootPolicy{})
	job := ctx.BeginJob("bench", 3)
	ctx.EndJob()
	if job.Status != execution.OK {
		t.Errorf("job status = %v, want OK", job.Status)
	}
}

func TestEventsAndMetrics(t *testing.T) {
	ctx := execution.NewContext(execution.RebootPolicy{})
	ctx.AddEvent("first")
	ctx.AddEvent("second")
	ctx.AddMetric("score", 42, "points", false)

	events := ctx.Events()
	if len(events) != 2 || events[0].Message != "first" {
		t.Fatalf("unexpected events: %+v", events)
	}
	metrics := ctx.Metrics()
	if len(metrics) != 1 || metrics[0].Name != "score" || metrics[0].Value != 42 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}

	// Snapshots do not alias internal state.
	events[0].Message = "mutated"
	if ctx.Events()[0].Message != "first" {
		t.Error("events snapshot aliases the context")
	}
}
