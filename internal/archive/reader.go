package archive

import (
	"archive/tar"
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	kerrors "github.com/PolarWolf314/claw-migrator/internal/errors"
	logger "github.com/PolarWolf314/claw-migrator/internal/logging"
	"github.com/PolarWolf314/claw-migrator/internal/utils"
	"github.com/klauspost/compress/gzip"
)

// RestoreOptions configures Restore.
type RestoreOptions struct {
	ArchivePath string

	// TargetDir receives the canonical layout: manifest.json, .openclaw/
	// and .openclaw/workspace/. Missing directories are created.
	TargetDir string

	Password []byte

	Logger logger.Logger
}

// RestoreResult summarizes a restore.
type RestoreResult struct {
	Files         []string // target-relative, slash separated
	Directories   []string
	Rejected      []string // entry names refused as unsafe
	Discarded     int      // entries of other kinds (symlinks, devices)
	ManifestFound bool
}

// Restore decrypts and unpacks an archive written by Create into
// opts.TargetDir. The authentication tag is always verified: a wrong
// password or any modification of the archive yields an error matching
// ErrAuthenticationFailed, even when the damage first shows up as a
// decompression or container error.
//
// Entries are written as they are read, before the tag is checked. When
// extraction fails the partial result is returned with the error, listing
// what was already written under the target.
func Restore(opts RestoreOptions) (*RestoreResult, error) {
	log := opts.Logger.Named("archive")

	targetAbs, err := filepath.Abs(opts.TargetDir)
	if err != nil {
		return nil, fmt.Errorf("resolving target directory: %w", err)
	}

	f, err := os.Open(opts.ArchivePath)
	if err != nil {
		return nil, &kerrors.IOError{Op: "open", Path: opts.ArchivePath, Err: err}
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, ioBufferSize)
	header, err := DecodeHeader(br)
	if err != nil {
		return nil, err
	}
	log.Debugf("Archive header: version %d, algorithm %d", header.Version, header.Algorithm)

	log.Debugf("Deriving archive key")
	key, err := DeriveKey(opts.Password, header.Salt)
	if err != nil {
		return nil, err
	}
	defer utils.ZeroBytes(key)

	stream, err := newGCMStream(key, header.IV)
	if err != nil {
		return nil, err
	}
	plain := newOpenReader(stream, NewTagSplitter(br, TagSize))

	result := &RestoreResult{}
	if err := extract(plain, targetAbs, result, log); err != nil {
		return result, classify(err, plain)
	}
	return result, nil
}

func extract(plain io.Reader, targetAbs string, result *RestoreResult, log logger.Logger) error {
	gz, err := gzip.NewReader(plain)
	if err != nil {
		return fmt.Errorf("opening compressed stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading container entry: %w", err)
		}

		rel, err := NormalizeEntryPath(hdr.Name)
		if err != nil {
			log.Warnf("Skipping unsafe archive entry: %v", err)
			result.Rejected = append(result.Rejected, hdr.Name)
			continue
		}

		// #nosec G305 -- rel is normalized and checked again below.
		targetPath := filepath.Join(targetAbs, filepath.FromSlash(rel))
		if !strings.HasPrefix(filepath.Clean(targetPath), withSeparator(targetAbs)) {
			log.Warnf("Skipping archive entry outside the target directory: %s", hdr.Name)
			result.Rejected = append(result.Rejected, hdr.Name)
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			// #nosec G301 -- Restored directories need to be traversable.
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return &kerrors.IOError{Op: "mkdir", Path: targetPath, Err: err}
			}
			result.Directories = append(result.Directories, rel)
		case tar.TypeReg:
			if err := extractFile(tr, targetPath, hdr.Mode); err != nil {
				return err
			}
			result.Files = append(result.Files, rel)
			if rel == ManifestName {
				result.ManifestFound = true
			}
			log.Debugf("Restored %s", rel)
		default:
			log.Debugf("Discarding %s (unsupported entry type %q)", hdr.Name, hdr.Typeflag)
			result.Discarded++
		}
	}

	// Read past the gzip trailer and then the rest of the ciphertext, so the
	// tag is checked even if the container ended early.
	if _, err := io.Copy(io.Discard, gz); err != nil {
		return fmt.Errorf("reading compressed stream: %w", err)
	}
	if _, err := io.Copy(io.Discard, plain); err != nil {
		return err
	}
	return nil
}

func withSeparator(dir string) string {
	if strings.HasSuffix(dir, string(os.PathSeparator)) {
		return dir
	}
	return dir + string(os.PathSeparator)
}

// extractFile streams one regular file to disk, clamping its permissions.
func extractFile(r io.Reader, targetPath string, mode int64) error {
	fileMode := os.FileMode(0600)
	if mode > 0 && mode <= 0777 {
		fileMode = os.FileMode(mode) // #nosec G115 -- mode is range checked.
	}

	// #nosec G301 -- Parent directories need to be traversable.
	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return &kerrors.IOError{Op: "mkdir", Path: filepath.Dir(targetPath), Err: err}
	}

	out, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode)
	if err != nil {
		return &kerrors.IOError{Op: "create", Path: targetPath, Err: err}
	}

	// #nosec G110 -- Content is authenticated once the tag is verified.
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		var ioErr *kerrors.IOError
		if errors.As(err, &ioErr) {
			return err
		}
		// Errors from the reader side surface here too; classify decides.
		return &readOrWriteError{path: targetPath, err: err}
	}
	if err := out.Close(); err != nil {
		return &kerrors.IOError{Op: "close", Path: targetPath, Err: err}
	}
	return nil
}

// readOrWriteError marks a failed copy whose cause may be either the
// decrypted stream or the destination file.
type readOrWriteError struct {
	path string
	err  error
}

func (e *readOrWriteError) Error() string { return fmt.Sprintf("writing %s: %v", e.path, e.err) }

func (e *readOrWriteError) Unwrap() error { return e.err }

// classify turns an extraction failure into the error reported to the
// caller. The ciphertext is drained first so that an authentication
// failure always wins over the symptom it caused downstream.
func classify(err error, plain io.Reader) error {
	if errors.Is(err, kerrors.ErrAuthenticationFailed) {
		return err
	}

	_, drainErr := io.Copy(io.Discard, plain)
	if drainErr != nil {
		if errors.Is(drainErr, kerrors.ErrAuthenticationFailed) || errors.Is(drainErr, kerrors.ErrInvalidFormat) {
			return drainErr
		}
	}

	if errors.Is(err, kerrors.ErrInvalidFormat) {
		return err
	}

	var ioErr *kerrors.IOError
	if errors.As(err, &ioErr) {
		return err
	}
	var copyErr *readOrWriteError
	if errors.As(err, &copyErr) {
		var pathErr *os.PathError
		if errors.As(copyErr.err, &pathErr) {
			return &kerrors.IOError{Op: "write", Path: copyErr.path, Err: copyErr.err}
		}
	}
	if drainErr != nil {
		return &kerrors.IOError{Op: "read", Err: drainErr}
	}
	return &kerrors.FormatError{Reason: "corrupt payload", Err: err}
}
