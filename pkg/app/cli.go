package app

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/rigtoolkit/rig/pkg/app/command"
	"github.com/rigtoolkit/rig/pkg/app/command/run"
	v "github.com/rigtoolkit/rig/pkg/version"
)

// Rig app CLI constants
const (
	AppName  = "rig"
	AppUsage = "observe and orchestrate benchmark runs on remote devices"
)

func newCLI() *cli.App {
	cliApp := cli.NewApp()
	cliApp.Version = v.Current()
	cliApp.Name = AppName
	cliApp.Usage = AppUsage
	cliApp.CommandNotFound = func(ctx *cli.Context, cmd string) {
		fmt.Printf("unknown command - %v \n\n", cmd)
		cli.ShowAppHelp(ctx)
	}

	cliApp.Flags = command.GlobalFlags()

	cliApp.Before = func(ctx *cli.Context) error {
		return command.ConfigureLogs(command.GlobalFlagValuesFrom(ctx))
	}

	cliApp.Commands = []*cli.Command{
		run.CLI,
		{
			Name:  "version",
			Usage: "Shows rig version information",
			Action: func(ctx *cli.Context) error {
				fmt.Println(v.Current())
				return nil
			},
		},
	}
	return cliApp
}
