package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/PolarWolf314/claw-migrator/internal/configs"
)

// Operation names recorded in the history.
const (
	OpExport   = "export"
	OpImport   = "import"
	OpFixPaths = "fix-paths"
)

// Entry is one line of the history log.
type Entry struct {
	Timestamp string `json:"ts"` // RFC3339 with microseconds, UTC.
	Operation string `json:"op"`
	Host      string `json:"host,omitempty"`

	// ArchiveID is the manifest id, linking an import to its export.
	ArchiveID   string   `json:"archive_id,omitempty"`
	ArchivePath string   `json:"archive,omitempty"`
	Sources     []string `json:"sources,omitempty"`     // For export.
	TargetDir   string   `json:"target,omitempty"`      // For import/fix-paths.
	FilesCount  int      `json:"files_count,omitempty"` // Files archived or restored.
	Skipped     []string `json:"skipped,omitempty"`     // Missing sources or rejected entries.
	Healed      bool     `json:"healed,omitempty"`
}

// Log appends an entry to the history log. Failures are ignored: an export
// or import never fails because its history could not be written.
func Log(entry Entry) {
	_ = Append(configs.UserMigratorSettings.HistoryPath, entry)
}

// Append writes entry to the history log at path, creating it if needed.
func Append(path string, entry Entry) error {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}
	if entry.Host == "" {
		entry.Host, _ = os.Hostname()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(data, '\n'))
	return err
}

// LogPath returns the path of the history log.
func LogPath() string {
	return configs.UserMigratorSettings.HistoryPath
}

// ReadEntries reads the whole history log. A missing log yields no entries.
func ReadEntries() ([]Entry, error) {
	data, err := os.ReadFile(LogPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into entries. Blank and malformed
// lines are skipped, so a partially written last line does not hide the
// rest of the history.
func ParseEntries(data []byte) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, err
	}
	return entries, nil
}
