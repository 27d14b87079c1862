package signals

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// AppInterruptChan is closed on the first interrupt request (SIGINT or
// SIGTERM). Run loops select on it between jobs.
var AppInterruptChan = make(chan struct{})

var interrupted int32

var watched = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}

// Interrupted reports whether an interrupt request has been received.
func Interrupted() bool {
	return atomic.LoadInt32(&interrupted) == 1
}

func InitHandlers() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, watched...)
	log.Debugf("rig: listening for signals - %+v", watched)
	go func() {
		sig := <-sigChan
		log.Debugf("rig: interrupt signal (%v)", sig)
		atomic.StoreInt32(&interrupted, 1)
		close(AppInterruptChan)
		// A second interrupt exits immediately.
		<-sigChan
		os.Exit(130)
	}()
}
