package workflows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PolarWolf314/claw-migrator/internal/audit"
)

// HistoryOptions configures the history workflow.
type HistoryOptions struct {
	// Limit keeps only the most recent entries. 0 keeps all.
	Limit int

	// Reverse lists the most recent entry first.
	Reverse bool

	// Operations is a comma-separated list of operations to keep.
	Operations string

	// ArchiveID keeps only entries for one archive.
	ArchiveID string

	// Since keeps entries on or after a date (YYYY-MM-DD).
	Since string
}

// HistoryResult contains the filtered history.
type HistoryResult struct {
	Entries []audit.Entry

	// Total is the number of entries before filtering.
	Total int
}

// History reads and filters the operation history.
func History(ctx context.Context, opts HistoryOptions) (*HistoryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var since time.Time
	if opts.Since != "" {
		parsed, err := time.Parse("2006-01-02", opts.Since)
		if err != nil {
			return nil, fmt.Errorf("invalid --since date %q, expected YYYY-MM-DD", opts.Since)
		}
		since = parsed
	}

	entries, err := audit.ReadEntries()
	if err != nil {
		return nil, fmt.Errorf("reading history %s: %w", audit.LogPath(), err)
	}

	ops := map[string]bool{}
	for _, op := range strings.Split(opts.Operations, ",") {
		if op = strings.TrimSpace(op); op != "" {
			ops[op] = true
		}
	}

	filtered := make([]audit.Entry, 0, len(entries))
	for _, e := range entries {
		if len(ops) > 0 && !ops[e.Operation] {
			continue
		}
		if opts.ArchiveID != "" && e.ArchiveID != opts.ArchiveID {
			continue
		}
		if !since.IsZero() {
			ts, err := time.Parse(time.RFC3339Nano, e.Timestamp)
			if err != nil || ts.Before(since) {
				continue
			}
		}
		filtered = append(filtered, e)
	}

	if opts.Limit > 0 && len(filtered) > opts.Limit {
		filtered = filtered[len(filtered)-opts.Limit:]
	}
	if opts.Reverse {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}

	return &HistoryResult{Entries: filtered, Total: len(entries)}, nil
}

// FormatDateTime renders an entry timestamp as local "YYYY-MM-DD HH:MM:SS".
func FormatDateTime(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// FormatDetails summarizes the operation-specific fields of an entry.
func FormatDetails(e audit.Entry) string {
	var parts []string
	switch e.Operation {
	case audit.OpExport:
		parts = append(parts, e.ArchivePath)
		parts = append(parts, fmt.Sprintf("%d file(s)", e.FilesCount))
		if len(e.Skipped) > 0 {
			parts = append(parts, fmt.Sprintf("%d source(s) skipped", len(e.Skipped)))
		}
	case audit.OpImport:
		parts = append(parts, e.ArchivePath+" -> "+e.TargetDir)
		parts = append(parts, fmt.Sprintf("%d file(s)", e.FilesCount))
		if len(e.Skipped) > 0 {
			parts = append(parts, fmt.Sprintf("%d rejected", len(e.Skipped)))
		}
		if e.Healed {
			parts = append(parts, "healed")
		}
	case audit.OpFixPaths:
		parts = append(parts, e.TargetDir)
		if e.Healed {
			parts = append(parts, "changed")
		} else {
			parts = append(parts, "unchanged")
		}
	}
	if e.ArchiveID != "" {
		parts = append(parts, "id="+shortID(e.ArchiveID))
	}
	return strings.Join(parts, ", ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
