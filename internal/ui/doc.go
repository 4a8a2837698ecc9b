// Package ui provides semantic text formatting for CLI output.
//
// Formatters render content by kind (commands, paths, errors, ...). With a
// color-capable terminal the text is colorized; when NO_COLOR is set or
// colors are unavailable, plain-text decorations are used instead.
//
//	ui.Code.Sprint("claw-migrator import -i agent-backup.oca")
//	ui.Path.Sprint("~/.openclaw/openclaw.json")
//	ui.Success.Sprint("✓")
//	ui.Warning.Sprint("skipped")
//	ui.Highlight.Sprint(archiveID)
//	ui.Muted.Sprint("optional")
//
// Rows lays out aligned label/value summaries for command output.
//
// # Color Behavior
//
// Colors are disabled when:
//   - NO_COLOR environment variable is set (any value)
//   - Terminal doesn't support colors (TERM=dumb, not a TTY)
//
// Without colors, Code gets `backticks`, Highlight 'single quotes' and
// Muted (parentheses); the others are left undecorated.
package ui
