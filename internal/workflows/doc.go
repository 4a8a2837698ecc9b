// Package workflows provides high-level orchestration for claw-migrator
// commands.
//
// Workflows combine settings (configs), the archive codec (archive), path
// healing (heal) and the history log (audit) into complete user-facing
// operations, independent of CLI concerns like flag parsing, prompts,
// spinners and output formatting.
//
// # Design Philosophy
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Acquires the password
//   - Calls the appropriate workflow function
//   - Formats the result for display
//
// Workflows handle everything else:
//   - Applying settings-file defaults to unset options
//   - Expanding "~" and resolving paths
//   - Performing the core operation
//   - Recording history entries
//
// # Available Workflows
//
//   - Export: archives the configuration and workspace directories
//   - Import: restores an archive and heals the restored configuration
//   - FixPaths: heals a previously restored configuration again
//   - History: reads and filters the operation history
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package:
//
//	result, err := workflows.Import(ctx, opts)
//	if errors.Is(err, kerrors.ErrAuthenticationFailed) {
//	    // Wrong password or damaged archive
//	}
//
// # Context Usage
//
// All workflow functions accept a context.Context as their first parameter.
// Cancellation is checked between stages; a stage already running (an
// export or a restore) runs to completion.
package workflows
