package app

import (
	"os"

	"github.com/rigtoolkit/rig/pkg/app/signals"
	"github.com/rigtoolkit/rig/pkg/util/errutil"
)

// Run starts the rig CLI app
func Run() {
	signals.InitHandlers()
	cli := newCLI()
	errutil.FailOn(cli.Run(os.Args))
}
