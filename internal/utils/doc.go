// Package utils provides shared helpers for claw-migrator's commands.
//
// # Filesystem Utilities
//
//   - EnsureDir: creates a restore destination and resolves it
//   - FileExists: checks for a regular file
//
// # Terminal Utilities
//
//   - ReadPassphrase, ReadPassphraseWithConfirm: hidden password prompts
//   - IsTerminal: checks whether stdin is interactive
//
// # I/O Utilities
//
//   - ReadStdin: reads a piped password for --password-stdin
//
// # Formatting
//
//   - FormatPaths, FormatSize: human-readable output
//   - TildePath: shows paths under the home directory as ~/...
//   - ZeroBytes: scrubs secrets after use
package utils
