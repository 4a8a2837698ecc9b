package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/PolarWolf314/claw-migrator/internal/audit"
	"github.com/PolarWolf314/claw-migrator/internal/ui"
	"github.com/PolarWolf314/claw-migrator/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	historyLimit     int
	historyReverse   bool
	historyOperation string
	historyArchiveID string
	historySince     string
	historyJSON      bool
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "number", "n", 0, "limit number of entries shown")
	historyCmd.Flags().BoolVar(&historyReverse, "reverse", false, "show most recent entries first")
	historyCmd.Flags().StringVar(&historyOperation, "operation", "", "filter by operation (export, import, fix-paths; comma-separated)")
	historyCmd.Flags().StringVar(&historyArchiveID, "archive-id", "", "show only entries for one archive")
	historyCmd.Flags().StringVar(&historySince, "since", "", "show entries on or after date (YYYY-MM-DD)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON array")
}

// resetHistoryCommandState resets the history command's global state for testing.
func resetHistoryCommandState() {
	historyLimit = 0
	historyReverse = false
	historyOperation = ""
	historyArchiveID = ""
	historySince = ""
	historyJSON = false
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past exports, imports and path fixes",
	Long: `Displays the operations recorded on this machine. Exports and imports of the
same archive share an archive id.

Examples:
  claw-migrator history                      # Full history
  claw-migrator history -n 5 --reverse       # Five most recent, newest first
  claw-migrator history --operation import   # Imports only
  claw-migrator history --json               # JSON output`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting history command")

	result, err := workflows.History(cmd.Context(), workflows.HistoryOptions{
		Limit:      historyLimit,
		Reverse:    historyReverse,
		Operations: historyOperation,
		ArchiveID:  historyArchiveID,
		Since:      historySince,
	})
	if err != nil {
		fmt.Println(ui.Error.Sprint("✗") + " " + err.Error())
		return &ReportedError{Err: err}
	}
	Logger.Debugf("Read %d entries, %d after filtering", result.Total, len(result.Entries))

	if historyJSON {
		return outputHistoryJSON(result.Entries)
	}

	if len(result.Entries) == 0 {
		if result.Total == 0 {
			fmt.Println("No history recorded yet.")
		} else {
			fmt.Println("No history entries match the filters.")
		}
		return nil
	}

	for _, e := range result.Entries {
		fmt.Printf("%-19s  %-9s  %s\n", workflows.FormatDateTime(e.Timestamp), e.Operation, workflows.FormatDetails(e))
	}
	return nil
}

func outputHistoryJSON(entries []audit.Entry) error {
	if entries == nil {
		entries = []audit.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries to JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
