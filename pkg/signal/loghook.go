package signal

import (
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/rigtoolkit/rig/pkg/execution"
)

// logHook mirrors error and warning log records onto the ErrorLogged
// and WarningLogged signals, so instruments can observe logged problems
// without scraping log output.
type logHook struct {
	dispatcher *Dispatcher
	ctx        *execution.Context
	busy       int32
}

// NewLogHook returns a logrus hook bound to one dispatcher and run
// context. Nested emissions (an error logged while dispatching
// ErrorLogged) are dropped to keep the hook from recursing.
func NewLogHook(d *Dispatcher, ctx *execution.Context) log.Hook {
	return &logHook{dispatcher: d, ctx: ctx}
}

func (h *logHook) Levels() []log.Level {
	return []log.Level{log.ErrorLevel, log.WarnLevel}
}

func (h *logHook) Fire(entry *log.Entry) error {
	if !atomic.CompareAndSwapInt32(&h.busy, 0, 1) {
		return nil
	}
	defer atomic.StoreInt32(&h.busy, 0)

	sig := ErrorLogged
	if entry.Level == log.WarnLevel {
		sig = WarningLogged
	}
	// Dispatch errors are swallowed here: a failing observer must not
	// turn a log statement into a run failure.
	_ = h.dispatcher.Send(sig, h.ctx)
	return nil
}
