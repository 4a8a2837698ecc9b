package cmd

import (
	"fmt"

	"github.com/PolarWolf314/claw-migrator/internal/ui"
	"github.com/PolarWolf314/claw-migrator/internal/utils"
	"github.com/PolarWolf314/claw-migrator/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	exportOutputPath    string
	exportSources       []string
	exportPassword      string
	exportPasswordStdin bool
)

func init() {
	exportCmd.Flags().StringVarP(&exportOutputPath, "output", "o", "", "archive to write (default: export.output from settings)")
	exportCmd.Flags().StringSliceVar(&exportSources, "source", nil, "directory to include; repeatable (default: export.sources from settings)")
	exportCmd.Flags().StringVarP(&exportPassword, "password", "p", "", "archive password (prefer --password-stdin or "+PasswordEnvVar+")")
	exportCmd.Flags().BoolVar(&exportPasswordStdin, "password-stdin", false, "read the archive password from stdin")
}

// resetExportCommandState resets the export command's global state for testing.
func resetExportCommandState() {
	exportOutputPath = ""
	exportSources = nil
	exportPassword = ""
	exportPasswordStdin = false
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export agent configuration and workspace to an encrypted archive",
	Long: `Packs the agent configuration directory and the workspace into a single
password-protected archive that can be restored on another machine.

By default ~/.openclaw (or a legacy ~/.clawdbot) and ~/clawd are exported to
agent-backup.oca. Both can be changed in the settings file or with flags.
Missing source directories are skipped with a warning.

The password is taken from --password, --password-stdin, or the
MIGRATOR_PASSWORD environment variable, and is prompted for otherwise.

Examples:
  # Export using the defaults
  claw-migrator export

  # Export to a custom path
  claw-migrator export -o /backups/agent.oca

  # Export specific directories with a piped password
  echo "$PW" | claw-migrator export --source ~/.openclaw --source ~/work --password-stdin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting export command")

		password, err := resolvePassword(exportPassword, exportPasswordStdin, true)
		if err != nil {
			fmt.Println(describeError("Export failed", err))
			return &ReportedError{Err: err}
		}
		defer utils.ZeroBytes(password)

		spinner, cleanup := startSpinner("Exporting agent state...", verbose)
		defer cleanup()

		result, err := workflows.Export(cmd.Context(), workflows.ExportOptions{
			Sources:    exportSources,
			OutputPath: exportOutputPath,
			Password:   password,
			Logger:     Logger,
		})
		if err != nil {
			Logger.Debugf("Export failed: %v", err)
			spinner.FinalMSG = describeError("Export failed", err)
			return &ReportedError{Err: err}
		}

		Logger.Infof("Archive %s written to %s", result.ArchiveID, result.OutputPath)
		spinner.FinalMSG = formatExportResult(result)
		return nil
	},
}

func formatExportResult(result *workflows.ExportResult) string {
	workspace := ui.Muted.Sprint("none")
	if result.Workspace != "" {
		workspace = ui.Path.Sprint(result.Workspace)
	}

	message := ui.Success.Sprint("✓") + " Exported to " + ui.Path.Sprint(result.OutputPath) + "\n\n" +
		ui.Rows(
			ui.Row{Label: "Archive ID", Value: ui.Highlight.Sprint(result.ArchiveID)},
			ui.Row{Label: "Workspace", Value: workspace},
			ui.Row{Label: "Contents", Value: fmt.Sprintf("%d file(s), %d directory(ies)", result.FileCount, result.DirCount)},
			ui.Row{Label: "Size", Value: utils.FormatSize(result.Size)},
		) +
		"\nArchived directories:" + utils.FormatPaths(result.Archived)

	for _, skipped := range result.Skipped {
		message += ui.Warning.Sprint("⚠") + " Skipped missing source " + ui.Path.Sprint(skipped) + "\n"
	}
	return message
}
