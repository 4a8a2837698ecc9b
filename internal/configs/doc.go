// Package configs manages claw-migrator's user settings.
//
// Settings live in TOML at <os.UserConfigDir()>/claw-migrator/config.toml:
//
//	[export]
//	sources = ["~/.openclaw", "~/clawd"]
//	output = "agent-backup.oca"
//
//	[import]
//	destination = "~"
//	skip_heal = false
//
//	[heal]
//	boundary_aware = false
//
// Command-line flags always take precedence over the file, and the file over
// DefaultConfig. The file is optional; `claw-migrator config init` writes
// the defaults so they can be edited.
//
// # Settings
//
// UserMigratorSettings is initialized at startup with the locations of the
// settings file and the operation history log.
package configs
