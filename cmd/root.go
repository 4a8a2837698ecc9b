package cmd

import (
	"errors"

	logger "github.com/PolarWolf314/claw-migrator/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger
)

// ReportedError marks a failure whose message was already printed to the
// user. main exits non-zero without printing it again.
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string { return e.Err.Error() }

func (e *ReportedError) Unwrap() error { return e.Err }

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var reported *ReportedError
	return errors.As(err, &reported)
}

// Register attaches the global flags and every subcommand to root.
func Register(root *cobra.Command) {
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		Logger = logger.Logger{
			Verbose: verbose,
			Debug:   debug,
		}
		Logger.Debugf("Initializing %s command with verbose=%t, debug=%t", cmd.Name(), verbose, debug)
		if debug {
			logFlags(cmd)
		}
	}

	root.AddCommand(exportCmd)
	root.AddCommand(importCmd)
	root.AddCommand(fixPathsCmd)
	root.AddCommand(ConfigCmd)
	root.AddCommand(historyCmd)
}

// logFlags prints the flags that were set on the command line. Password
// values are masked.
func logFlags(cmd *cobra.Command) {
	cmd.Flags().Visit(func(flag *pflag.Flag) {
		value := flag.Value.String()
		if flag.Name == "password" {
			value = "********"
		}
		Logger.Debugf("Flag --%s=%s", flag.Name, value)
	})
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	resetExportCommandState()
	resetImportCommandState()
	resetFixPathsCommandState()
	resetConfigState()
	resetHistoryCommandState()
	resetCobraFlagState(exportCmd, importCmd, fixPathsCmd, ConfigCmd, configShowCmd, configInitCmd, historyCmd)
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}

// resetCobraFlagState clears the Changed marks left by earlier executions so
// required-flag checks and Visit see a clean slate.
func resetCobraFlagState(commands ...*cobra.Command) {
	for _, c := range commands {
		c.Flags().VisitAll(func(flag *pflag.Flag) {
			flag.Changed = false
		})
	}
}
