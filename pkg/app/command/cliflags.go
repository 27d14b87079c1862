package command

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// Global flag names
const (
	FlagDebug     = "debug"
	FlagVerbose   = "verbose"
	FlagLogLevel  = "log-level"
	FlagLog       = "log"
	FlagLogFormat = "log-format"
	FlagNoColor   = "no-color"
)

// Global flag usage info
const (
	FlagDebugUsage     = "enable debug logs"
	FlagVerboseUsage   = "enable info logs"
	FlagLogLevelUsage  = "set the logging level ('trace', 'debug', 'info', 'warn' (default), 'error', 'fatal', 'panic')"
	FlagLogUsage       = "log file to store logs"
	FlagLogFormatUsage = "set the format used by logs ('text' (default), or 'json')"
	FlagNoColorUsage   = "disable color output"
)

func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    FlagDebug,
			Usage:   FlagDebugUsage,
			EnvVars: []string{"RIG_DEBUG"},
		},
		&cli.BoolFlag{
			Name:    FlagVerbose,
			Usage:   FlagVerboseUsage,
			EnvVars: []string{"RIG_VERBOSE"},
		},
		&cli.StringFlag{
			Name:    FlagLogLevel,
			Value:   "warn",
			Usage:   FlagLogLevelUsage,
			EnvVars: []string{"RIG_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:  FlagLog,
			Usage: FlagLogUsage,
		},
		&cli.StringFlag{
			Name:  FlagLogFormat,
			Value: "text",
			Usage: FlagLogFormatUsage,
		},
		&cli.BoolFlag{
			Name:  FlagNoColor,
			Usage: FlagNoColorUsage,
		},
	}
}

// GlobalFlagValues is the parsed global flag state shared by commands.
type GlobalFlagValues struct {
	Debug     bool
	Verbose   bool
	LogLevel  string
	LogFile   string
	LogFormat string
	NoColor   bool
}

func GlobalFlagValuesFrom(ctx *cli.Context) *GlobalFlagValues {
	return &GlobalFlagValues{
		Debug:     ctx.Bool(FlagDebug),
		Verbose:   ctx.Bool(FlagVerbose),
		LogLevel:  ctx.String(FlagLogLevel),
		LogFile:   ctx.String(FlagLog),
		LogFormat: ctx.String(FlagLogFormat),
		NoColor:   ctx.Bool(FlagNoColor),
	}
}

// ConfigureLogs applies the global logging flags to the logrus root.
func ConfigureLogs(gv *GlobalFlagValues) error {
	switch {
	case gv.Debug:
		log.SetLevel(log.DebugLevel)
	case gv.Verbose:
		log.SetLevel(log.InfoLevel)
	default:
		level, err := log.ParseLevel(gv.LogLevel)
		if err != nil {
			return err
		}
		log.SetLevel(level)
	}

	switch gv.LogFormat {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{DisableColors: gv.NoColor})
	}

	if gv.LogFile != "" {
		f, err := os.OpenFile(gv.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		log.SetOutput(f)
	}
	return nil
}
