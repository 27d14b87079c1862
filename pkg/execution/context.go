// Package execution holds the per-run execution context passed to every
// dispatched instrument callback: run/job identity, the event log, job
// status, collected metrics, the reboot policy, and a back-reference to
// the target session manager.
package execution

import (
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	log "github.com/sirupsen/logrus"
)

// Status of a run or job.
type Status int

const (
	Pending Status = iota
	Running
	OK
	Partial
	Failed
	Aborted
)

var statusNames = map[Status]string{
	Pending: "PENDING",
	Running: "RUNNING",
	OK:      "OK",
	Partial: "PARTIAL",
	Failed:  "FAILED",
	Aborted: "ABORTED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// RebootPolicy controls whether recovery is allowed to reboot the target.
type RebootPolicy struct {
	CanReboot bool
}

// TargetManager is the slice of the target session manager visible to
// dispatched callbacks. The full manager lives in pkg/target; the
// interface breaks the import cycle.
type TargetManager interface {
	IsResponsive() bool
	VerifyResponsive(canReboot bool) error
}

// Job is one scheduled execution of a workload within a run.
type Job struct {
	ID        string
	Workload  string
	Iteration int
	Status    Status
}

// Event is one entry in the run's diagnostic event log.
type Event struct {
	Timestamp time.Time
	Message   string
}

// Metric is one measurement produced by a workload or instrument.
type Metric struct {
	Name          string
	Value         float64
	Units         string
	LowerIsBetter bool
}

// Context is the execution context for one run. Mutations are
// mutex-guarded so instrument callbacks and the CLI signal handler can
// share it; dispatch itself stays synchronous.
type Context struct {
	RunID        string
	RebootPolicy RebootPolicy

	mu      sync.Mutex
	tm      TargetManager
	status  Status
	job     *Job
	events  []Event
	metrics []Metric
	started time.Time
	log     *log.Entry
}

// NewContext creates a fresh run context with a generated run ID.
func NewContext(policy RebootPolicy) *Context {
	id := ksuid.New().String()
	return &Context{
		RunID:        id,
		RebootPolicy: policy,
		status:       Pending,
		started:      time.Now(),
		log:          log.WithField("run", id),
	}
}

// AttachTargetManager binds the target session manager back-reference.
// Called once by the manager during session construction.
func (c *Context) AttachTargetManager(tm TargetManager) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tm = tm
}

// TargetManager returns the attached session manager (nil before attach).
func (c *Context) TargetManager() TargetManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tm
}

// BeginJob opens a new current job. Any previous job must be closed
// with EndJob first.
func (c *Context) BeginJob(workload string, iteration int) *Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.job = &Job{
		ID:        ksuid.New().String(),
		Workload:  workload,
		Iteration: iteration,
		Status:    Running,
	}
	c.log.WithFields(log.Fields{
		"job":      c.job.ID,
		"workload": workload,
		"iter":     iteration,
	}).Debug("job started")
	return c.job
}

// EndJob closes the current job, defaulting its status to OK when the
// job finished without an explicit status.
func (c *Context) EndJob() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.job == nil {
		return
	}
	if c.job.Status == Running {
		c.job.Status = OK
	}
	c.job = nil
}

// CurrentJob returns the in-flight job, or nil outside job scope.
func (c *Context) CurrentJob() *Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.job
}

// SetStatus records a status on the current job when one is active,
// otherwise on the run itself. Failed and Aborted are sticky for the
// scope they were set on.
func (c *Context) SetStatus(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.job != nil {
		if c.job.Status == Failed || c.job.Status == Aborted {
			return
		}
		c.job.Status = s
		return
	}
	if c.status == Failed || c.status == Aborted {
		return
	}
	c.status = s
}

// Status returns the status of the current job if one is active,
// otherwise the run status.
func (c *Context) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.job != nil {
		return c.job.Status
	}
	return c.status
}

// AddEvent appends a message to the run event log.
func (c *Context) AddEvent(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, Event{Timestamp: time.Now(), Message: msg})
}

// AddMetric records a measurement against the run output.
func (c *Context) AddMetric(name string, value float64, units string, lowerIsBetter bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = append(c.metrics, Metric{
		Name:          name,
		Value:         value,
		Units:         units,
		LowerIsBetter: lowerIsBetter,
	})
}

// Events returns a snapshot of the event log.
func (c *Context) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Metrics returns a snapshot of the collected metrics.
func (c *Context) Metrics() []Metric {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Metric, len(c.metrics))
	copy(out, c.metrics)
	return out
}

// Elapsed reports the wall time since the context was created.
func (c *Context) Elapsed() time.Duration {
	return time.Since(c.started)
}

// Log returns the run-scoped logger.
func (c *Context) Log() *log.Entry {
	return c.log
}
