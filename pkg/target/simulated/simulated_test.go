package simulated_test

import (
	"strings"
	"testing"

	"github.com/rigtoolkit/rig/pkg/execution"
	"github.com/rigtoolkit/rig/pkg/faults"
	"github.com/rigtoolkit/rig/pkg/target"
	"github.com/rigtoolkit/rig/pkg/target/simulated"
)

func connected(t *testing.T) *simulated.Target {
	t.Helper()
	st := simulated.NewTarget(target.Options{})
	if err := st.Connect(); err != nil {
		t.Fatal("connect failed:", err)
	}
	return st
}

func TestRegistered(t *testing.T) {
	desc, ok := target.LookupDescriptor(simulated.TypeName)
	if !ok {
		t.Fatal("simulated target type not registered")
	}
	if !desc.Simulated {
		t.Error("descriptor not flagged as simulated")
	}
}

func TestExecuteVocabulary(t *testing.T) {
	st := connected(t)

	out, err := st.Execute("echo hello world")
	if err != nil || out != "hello world" {
		t.Errorf("echo = %q, %v", out, err)
	}

	if _, err := st.Execute("true"); err != nil {
		t.Errorf("true failed: %v", err)
	}

	out, err = st.Execute("uptime")
	if err != nil || !strings.HasPrefix(out, "up ") {
		t.Errorf("uptime = %q, %v", out, err)
	}

	out, err = st.Execute("bench 3")
	if err != nil {
		t.Fatal("bench failed:", err)
	}
	if got := strings.Count(out, "score="); got != 3 {
		t.Errorf("bench emitted %d scores:\n%s", got, out)
	}

	if _, err := st.Execute("frobnicate"); !faults.Is(err, faults.Target) {
		t.Errorf("unknown command error: %v", err)
	}
	if _, err := st.Execute("bench nope"); !faults.Is(err, faults.Config) {
		t.Errorf("bad bench count error: %v", err)
	}
}

func TestExecuteRequiresConnection(t *testing.T) {
	st := simulated.NewTarget(target.Options{})
	if _, err := st.Execute("true"); !faults.Is(err, faults.Target) {
		t.Errorf("unexpected error: %v", err)
	}
	if err := st.Setup(); !faults.Is(err, faults.Target) {
		t.Errorf("setup before connect: %v", err)
	}
}

func TestFailInjection(t *testing.T) {
	st := connected(t)

	if _, err := st.Execute("fail target"); !faults.Is(err, faults.Target) {
		t.Errorf("fail target: %v", err)
	}
	if _, err := st.Execute("fail timeout"); !faults.Is(err, faults.Timeout) {
		t.Errorf("fail timeout: %v", err)
	}
	if _, err := st.Execute("fail"); !faults.Is(err, faults.Workload) {
		t.Errorf("fail default: %v", err)
	}
}

func TestHangAndHardRebootRecovery(t *testing.T) {
	st := connected(t)

	if _, err := st.Execute("hang"); !faults.Is(err, faults.Timeout) {
		t.Fatalf("hang error: %v", err)
	}
	if ok, _ := st.CheckResponsive(false); ok {
		t.Fatal("target still responsive after hang")
	}
	if _, err := st.CheckResponsive(true); !faults.Is(err, faults.NotResponding) {
		t.Errorf("exploding probe error: %v", err)
	}
	// A hung target cannot answer anything.
	if _, err := st.Execute("true"); !faults.Is(err, faults.Timeout) {
		t.Errorf("execute on hung target: %v", err)
	}

	// Soft reboot needs a live target; hard reset does not.
	if err := st.Reboot(false); !faults.Is(err, faults.NotResponding) {
		t.Errorf("soft reboot of hung target: %v", err)
	}
	if err := st.Reboot(true); err != nil {
		t.Fatal("hard reset failed:", err)
	}
	if ok, _ := st.CheckResponsive(false); !ok {
		t.Error("target not revived by hard reset")
	}
	if st.RebootCount() != 1 {
		t.Errorf("reboot count = %d", st.RebootCount())
	}
	if _, err := st.Execute("true"); err != nil {
		t.Errorf("execute after recovery: %v", err)
	}
}

func TestHotplug(t *testing.T) {
	st := connected(t)

	online, err := st.ListOnlineCPUs()
	if err != nil {
		t.Fatal(err)
	}
	// Boots with half the CPUs online.
	if len(online) != st.NumberOfCPUs()/2 {
		t.Fatalf("booted with %v online", online)
	}

	if err := st.Hotplug().OnlineAll(); err != nil {
		t.Fatal(err)
	}
	online, _ = st.ListOnlineCPUs()
	if len(online) != st.NumberOfCPUs() {
		t.Errorf("after OnlineAll: %v", online)
	}

	if err := st.Hotplug().Offline(2, 3); err != nil {
		t.Fatal(err)
	}
	online, _ = st.ListOnlineCPUs()
	if len(online) != 2 {
		t.Errorf("after Offline(2,3): %v", online)
	}

	if err := st.Hotplug().Offline(99); !faults.Is(err, faults.Target) {
		t.Errorf("offlining a bogus cpu: %v", err)
	}
}

func TestAssistantSampling(t *testing.T) {
	st := connected(t)
	a := simulated.NewAssistant(st)

	if err := a.Stop(); !faults.Is(err, faults.Target) {
		t.Errorf("stopping an idle assistant: %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	if err := a.Start(); !faults.Is(err, faults.Target) {
		t.Errorf("double start: %v", err)
	}
	if err := a.Stop(); err != nil {
		t.Fatal(err)
	}

	ctx := execution.NewContext(execution.RebootPolicy{})
	if err := a.ExtractResults(ctx); err != nil {
		t.Fatal(err)
	}
	metrics := ctx.Metrics()
	if len(metrics) != 1 || metrics[0].Name != "assistant_samples" {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
	if metrics[0].Value < 1 {
		t.Errorf("sample count = %v", metrics[0].Value)
	}

	// The buffer drains on extraction.
	if err := a.ExtractResults(ctx); err != nil {
		t.Fatal(err)
	}
	if got := ctx.Metrics()[1].Value; got != 0 {
		t.Errorf("second extraction reported %v samples", got)
	}
}
