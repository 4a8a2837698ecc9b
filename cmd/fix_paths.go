package cmd

import (
	"github.com/PolarWolf314/claw-migrator/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	fixPathsDestination string
	fixPathsStrict      bool
)

func init() {
	fixPathsCmd.Flags().StringVarP(&fixPathsDestination, "dest", "d", "", "directory a previous import restored into (default: import.destination from settings)")
	fixPathsCmd.Flags().BoolVar(&fixPathsStrict, "strict-paths", false, "only rewrite paths that end at a separator")
}

func resetFixPathsCommandState() {
	fixPathsDestination = ""
	fixPathsStrict = false
}

var fixPathsCmd = &cobra.Command{
	Use:   "fix-paths",
	Short: "Rewrite paths in an already restored configuration",
	Long: `Runs the path fixing step of 'claw-migrator import' on its own, for archives
restored with --skip-heal or configurations edited since.

The exporting machine's home directory and workspace are read from the
manifest.json left in the destination by the import. Running it twice is
harmless; the file is only rewritten when something changes.

Examples:
  claw-migrator fix-paths
  claw-migrator fix-paths -d /tmp/restore --strict-paths`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting fix-paths command")
		spinner, cleanup := startSpinner("Fixing paths...", verbose)
		defer cleanup()

		result, err := workflows.FixPaths(cmd.Context(), workflows.FixPathsOptions{
			TargetDir:   fixPathsDestination,
			StrictPaths: fixPathsStrict,
			Logger:      Logger,
		})
		if err != nil {
			Logger.Debugf("Fix-paths failed: %v", err)
			spinner.FinalMSG = describeError("Fixing paths failed", err)
			return &ReportedError{Err: err}
		}

		spinner.FinalMSG = formatHealResult(result)
		return nil
	},
}
