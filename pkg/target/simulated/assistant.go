package simulated

import (
	"sync"
	"time"

	humanize "github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/rigtoolkit/rig/pkg/execution"
	"github.com/rigtoolkit/rig/pkg/faults"
)

const sampleBytes = 64

// Assistant is the simulated companion process. While started it
// accumulates measurement samples at a fixed notional rate; extraction
// turns them into run metrics.
type Assistant struct {
	target *Target

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	samples   int
	log       *log.Entry
}

func NewAssistant(t *Target) *Assistant {
	return &Assistant{
		target: t,
		log:    log.WithField("com", "simulated.assistant"),
	}
}

func (a *Assistant) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return faults.New(faults.Target, "assistant already started")
	}
	a.running = true
	a.startedAt = time.Now()
	a.log.Debug("assistant started")
	return nil
}

func (a *Assistant) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return faults.New(faults.Target, "assistant not started")
	}
	a.running = false
	// One sample per millisecond of runtime, at least one.
	elapsed := time.Since(a.startedAt)
	n := int(elapsed / time.Millisecond)
	if n < 1 {
		n = 1
	}
	a.samples += n
	a.log.WithField("samples", n).Debug("assistant stopped")
	return nil
}

// ExtractResults moves the accumulated samples into the run context as
// metrics and clears the buffer.
func (a *Assistant) ExtractResults(ctx *execution.Context) error {
	a.mu.Lock()
	samples := a.samples
	a.samples = 0
	a.mu.Unlock()

	ctx.AddMetric("assistant_samples", float64(samples), "samples", false)
	a.log.WithFields(log.Fields{
		"samples": samples,
		"size":    humanize.Bytes(uint64(samples * sampleBytes)),
	}).Info("extracted results")
	return nil
}
