package run

import (
	"github.com/urfave/cli/v2"

	"github.com/rigtoolkit/rig/pkg/app/command"
	"github.com/rigtoolkit/rig/pkg/target/simulated"
)

const (
	Name  = "run"
	Usage = "Runs a measurement session against a target device"
	Alias = "r"
)

// Command flag names
const (
	FlagTarget      = "target"
	FlagWorkload    = "workload"
	FlagJobs        = "jobs"
	FlagDisconnect  = "disconnect"
	FlagAllowReboot = "allow-reboot"
	FlagDisable     = "disable"
)

var CLI = &cli.Command{
	Name:    Name,
	Aliases: []string{Alias},
	Usage:   Usage,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    FlagTarget,
			Value:   simulated.TypeName,
			Usage:   "target type to run against",
			EnvVars: []string{"RIG_TARGET"},
		},
		&cli.StringFlag{
			Name:  FlagWorkload,
			Value: "bench 3",
			Usage: "workload command to execute on the target",
		},
		&cli.IntFlag{
			Name:  FlagJobs,
			Value: 1,
			Usage: "number of jobs to run",
		},
		&cli.BoolFlag{
			Name:  FlagDisconnect,
			Usage: "disconnect from the target at the end of the run",
		},
		&cli.BoolFlag{
			Name:  FlagAllowReboot,
			Value: true,
			Usage: "allow rebooting the target to recover from unresponsiveness",
		},
		&cli.StringSliceFlag{
			Name:  FlagDisable,
			Usage: "instrument to disable for this run (can be repeated)",
		},
	},
	Action: func(ctx *cli.Context) error {
		gv := command.GlobalFlagValuesFrom(ctx)
		cfg := Config{
			Target:      ctx.String(FlagTarget),
			Workload:    ctx.String(FlagWorkload),
			Jobs:        ctx.Int(FlagJobs),
			Disconnect:  ctx.Bool(FlagDisconnect),
			AllowReboot: ctx.Bool(FlagAllowReboot),
			Disable:     ctx.StringSlice(FlagDisable),
			NoColor:     gv.NoColor,
		}
		return OnCommand(cfg)
	},
}
