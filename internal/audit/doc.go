// Package audit keeps a history of claw-migrator operations.
//
// Every export, import and fix-paths run appends one JSON object to
//
//	<os.UserConfigDir()>/claw-migrator/history.jsonl
//
// Each entry records the time, host, operation, archive path and the
// archive's manifest id, so an import can be matched to the export that
// produced it. Passwords and file contents are never recorded.
//
// # Failure Handling
//
// History logging is best-effort. If the log cannot be written the
// operation still succeeds.
//
// # Reading Logs
//
// ReadEntries parses the log for `claw-migrator history`. Malformed lines
// are skipped to tolerate partial writes.
package audit
