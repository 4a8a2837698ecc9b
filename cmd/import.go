package cmd

import (
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/claw-migrator/internal/errors"
	"github.com/PolarWolf314/claw-migrator/internal/heal"
	"github.com/PolarWolf314/claw-migrator/internal/ui"
	"github.com/PolarWolf314/claw-migrator/internal/utils"
	"github.com/PolarWolf314/claw-migrator/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	importArchivePath   string
	importDestination   string
	importPassword      string
	importPasswordStdin bool
	importSkipHeal      bool
	importStrictPaths   bool
)

func init() {
	importCmd.Flags().StringVarP(&importArchivePath, "input", "i", "", "archive to restore (required)")
	importCmd.Flags().StringVarP(&importDestination, "dest", "d", "", "directory to restore into (default: import.destination from settings)")
	importCmd.Flags().StringVarP(&importPassword, "password", "p", "", "archive password (prefer --password-stdin or "+PasswordEnvVar+")")
	importCmd.Flags().BoolVar(&importPasswordStdin, "password-stdin", false, "read the archive password from stdin")
	importCmd.Flags().BoolVar(&importSkipHeal, "skip-heal", false, "restore files without rewriting paths in the configuration")
	importCmd.Flags().BoolVar(&importStrictPaths, "strict-paths", false, "only rewrite paths that end at a separator")
	_ = importCmd.MarkFlagRequired("input")
}

// resetImportCommandState resets the import command's global state for testing.
func resetImportCommandState() {
	importArchivePath = ""
	importDestination = ""
	importPassword = ""
	importPasswordStdin = false
	importSkipHeal = false
	importStrictPaths = false
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Restore an encrypted archive and fix paths for this machine",
	Long: `Decrypts an archive written by 'claw-migrator export' into the destination
directory, then rewrites paths in the restored configuration so they point at
this machine's home directory and workspace.

The archive is authenticated as it is read. A wrong password or a damaged
archive is reported once the whole archive has been checked, and files
written before that point should not be trusted.

Archive entries that would land outside the destination are skipped and
listed in the summary.

Examples:
  # Restore into the home directory
  claw-migrator import -i agent-backup.oca

  # Restore somewhere else and leave the configuration untouched
  claw-migrator import -i agent-backup.oca -d /tmp/restore --skip-heal

  # Only rewrite whole path components
  claw-migrator import -i agent-backup.oca --strict-paths`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting import command")

		password, err := resolvePassword(importPassword, importPasswordStdin, false)
		if err != nil {
			fmt.Println(describeError("Import failed", err))
			return &ReportedError{Err: err}
		}
		defer utils.ZeroBytes(password)

		spinner, cleanup := startSpinner("Restoring archive...", verbose)
		defer cleanup()

		result, err := workflows.Import(cmd.Context(), workflows.ImportOptions{
			ArchivePath: importArchivePath,
			Destination: importDestination,
			Password:    password,
			SkipHeal:    importSkipHeal,
			StrictPaths: importStrictPaths,
			Logger:      Logger,
		})
		if err != nil {
			Logger.Debugf("Import failed: %v", err)
			spinner.FinalMSG = describeError("Import failed", err) + untrustedFilesWarning(result, err)
			return &ReportedError{Err: err}
		}

		Logger.Infof("Restored %d file(s) into %s", len(result.Restore.Files), result.Destination)
		spinner.FinalMSG = formatImportResult(result)
		return nil
	},
}

// untrustedFilesWarning names the files an unauthenticated restore left
// behind. Entries are written before the archive's tag is checked.
func untrustedFilesWarning(result *workflows.ImportResult, err error) string {
	if result == nil || !errors.Is(err, kerrors.ErrAuthenticationFailed) {
		return ""
	}
	if result.Restore == nil || len(result.Restore.Files) == 0 {
		return "\n" + ui.Info.Sprint("→") + " No files were written to " + ui.Path.Sprint(result.Destination)
	}
	return "\n" + ui.Warning.Sprint("⚠") + fmt.Sprintf(" %d file(s) already written under ", len(result.Restore.Files)) +
		ui.Path.Sprint(result.Destination) + " cannot be trusted; delete them before using this directory:" +
		utils.FormatPaths(result.Restore.Files)
}

func formatImportResult(result *workflows.ImportResult) string {
	archiveID := ui.Muted.Sprint("no manifest")
	if result.ArchiveID != "" {
		archiveID = ui.Highlight.Sprint(result.ArchiveID)
	}

	message := ui.Success.Sprint("✓") + " Restored into " + ui.Path.Sprint(result.Destination) + "\n\n" +
		ui.Rows(
			ui.Row{Label: "Archive ID", Value: archiveID},
			ui.Row{Label: "Restored", Value: fmt.Sprintf("%d file(s), %d directory(ies)", len(result.Restore.Files), len(result.Restore.Directories))},
		)

	if len(result.Restore.Rejected) > 0 {
		message += "\n" + ui.Warning.Sprint("⚠") + " Skipped unsafe entries:" + utils.FormatPaths(result.Restore.Rejected)
	}

	if result.Heal == nil {
		message += "\n" + ui.Info.Sprint("→") + " Paths were not rewritten. Run " +
			ui.Code.Sprint("claw-migrator fix-paths -d "+result.Destination) + " when ready"
		return message
	}
	return message + "\n" + formatHealResult(result.Heal)
}

// formatHealResult summarizes a heal pass. Shared with fix-paths.
func formatHealResult(result *heal.Result) string {
	if result.ConfigPath == "" {
		return ui.Warning.Sprint("⚠") + " No configuration file found; nothing to rewrite"
	}

	if !result.Changed {
		return ui.Success.Sprint("✓") + " " + ui.Path.Sprint(result.ConfigPath) + " already points at this machine"
	}

	message := ui.Success.Sprint("✓") + " Updated " + ui.Path.Sprint(result.ConfigPath) + "\n" +
		ui.Rows(
			ui.Row{Label: "Workspace", Value: ui.Path.Sprint(result.NewWorkspace)},
			ui.Row{Label: "Home paths", Value: fmt.Sprintf("%d replaced", result.HomeReplacements)},
			ui.Row{Label: "Workspace paths", Value: fmt.Sprintf("%d replaced", result.WorkspaceReplacements)},
		)
	if !result.ManifestFound {
		message += ui.Warning.Sprint("⚠") + " Archive had no manifest; only the workspace setting was updated"
	}
	return message
}
