// Package errors provides typed error values for claw-migrator.
//
// Sentinel errors let callers handle specific conditions with errors.Is()
// rather than string matching. The archive codec additionally returns typed
// errors that carry detail and still match their sentinel.
//
// # Error Categories
//
//   - Archive errors: ErrInvalidFormat (FormatError), ErrAuthenticationFailed
//     (AuthenticationError), ErrUnsafePath (SecurityRejection)
//   - Input errors: ErrNoSources, ErrFileNotFound, ErrPasswordRequired
//   - Configuration errors: ErrInvalidConfig, ErrSettingsExist
//   - Filesystem failures: IOError, which unwraps to the underlying *fs.PathError
//
// # Usage
//
// Handle errors in the CLI layer:
//
//	result, err := workflows.Import(ctx, opts)
//	if errors.Is(err, kerrors.ErrAuthenticationFailed) {
//	    // Wrong password or tampered archive
//	}
//
// Inspect details with errors.As:
//
//	var ioErr *kerrors.IOError
//	if errors.As(err, &ioErr) {
//	    fmt.Println(ioErr.Path)
//	}
package errors
