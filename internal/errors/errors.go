package errors

import (
	"errors"
	"fmt"
)

// Archive errors indicate problems with the archive container itself.
var (
	// ErrInvalidFormat indicates the archive is not a supported claw-migrator archive.
	ErrInvalidFormat = errors.New("invalid archive format")

	// ErrAuthenticationFailed indicates the archive failed integrity verification.
	ErrAuthenticationFailed = errors.New("archive authentication failed (wrong password or corrupted data)")

	// ErrUnsafePath indicates an archive entry would be written outside the target directory.
	ErrUnsafePath = errors.New("unsafe archive entry path")
)

// Input errors indicate invalid or missing input from the caller.
var (
	// ErrNoSources indicates no source directories were supplied for export.
	ErrNoSources = errors.New("no source directories specified")

	// ErrFileNotFound indicates a specific file could not be located.
	ErrFileNotFound = errors.New("file not found")

	// ErrPasswordRequired indicates no password was supplied.
	ErrPasswordRequired = errors.New("password required")

	// ErrPasswordMismatch indicates the password confirmation did not match.
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// Configuration errors indicate issues with the restored configuration or the tool's settings.
var (
	// ErrInvalidConfig indicates the restored configuration document could not be parsed.
	ErrInvalidConfig = errors.New("configuration document is invalid")

	// ErrSettingsExist indicates a settings file already exists and would be overwritten.
	ErrSettingsExist = errors.New("settings file already exists")
)

// FormatError reports a malformed or unsupported archive.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrInvalidFormat, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidFormat, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrInvalidFormat }

// AuthenticationError reports an authentication tag mismatch.
type AuthenticationError struct{}

func (e *AuthenticationError) Error() string { return ErrAuthenticationFailed.Error() }

func (e *AuthenticationError) Is(target error) bool { return target == ErrAuthenticationFailed }

// IOError reports a filesystem failure while reading sources or writing outputs.
type IOError struct {
	Op   string // "open", "create", "read", "write", "mkdir", ...
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("io error: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("io error: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// SecurityRejection reports an archive entry that was refused because its
// normalized path would escape the target directory.
type SecurityRejection struct {
	Entry  string
	Reason string
}

func (e *SecurityRejection) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrUnsafePath, e.Entry, e.Reason)
}

func (e *SecurityRejection) Is(target error) bool { return target == ErrUnsafePath }
