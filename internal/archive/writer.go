package archive

import (
	"archive/tar"
	"bufio"
	"crypto/rand"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	kerrors "github.com/PolarWolf314/claw-migrator/internal/errors"
	logger "github.com/PolarWolf314/claw-migrator/internal/logging"
	"github.com/PolarWolf314/claw-migrator/internal/manifest"
	"github.com/PolarWolf314/claw-migrator/internal/utils"
	"github.com/klauspost/compress/gzip"
)

const ioBufferSize = 64 * 1024

// CreateOptions configures Create.
type CreateOptions struct {
	// Sources are the directories to archive. Each becomes a top-level
	// entry named by its base name. Missing directories are skipped.
	Sources []string

	// OutputPath is the archive to write. An existing file is truncated.
	OutputPath string

	Password []byte

	// Host supplies the facts recorded in the manifest.
	Host manifest.Host

	Logger logger.Logger
}

// CreateResult summarizes an export.
type CreateResult struct {
	Manifest       *manifest.Manifest
	Archived       []string // absolute source directories included
	SkippedSources []string // sources that did not exist or were not directories
	FileCount      int
	DirCount       int
	BytesWritten   int64
}

// Create writes an encrypted archive of the source directories:
// header, then AES-GCM(gzip(tar(manifest, sources...))), then the tag.
func Create(opts CreateOptions) (*CreateResult, error) {
	log := opts.Logger.Named("archive")
	if len(opts.Sources) == 0 {
		return nil, kerrors.ErrNoSources
	}

	outputAbs, err := filepath.Abs(opts.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("resolving output path: %w", err)
	}

	outputReal := resolveOutput(outputAbs)

	result := &CreateResult{}
	roots := map[string]string{}
	for _, src := range opts.Sources {
		abs, err := filepath.Abs(src)
		if err != nil {
			return nil, fmt.Errorf("resolving source %s: %w", src, err)
		}
		// WalkDir does not follow a symlinked root, so walk its target.
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			log.Warnf("Source directory not found, skipping: %s", abs)
			result.SkippedSources = append(result.SkippedSources, abs)
			continue
		}
		info, err := os.Stat(resolved)
		if err != nil || !info.IsDir() {
			log.Warnf("Source directory not found, skipping: %s", abs)
			result.SkippedSources = append(result.SkippedSources, abs)
			continue
		}
		if resolved != abs {
			log.Debugf("Source %s resolves to %s", abs, resolved)
		}
		roots[abs] = resolved
		result.Archived = append(result.Archived, abs)
	}

	salt, err := randomBytes(SaltSize)
	if err != nil {
		return nil, err
	}
	iv, err := randomBytes(IVSize)
	if err != nil {
		return nil, err
	}

	log.Debugf("Deriving archive key")
	key, err := DeriveKey(opts.Password, salt)
	if err != nil {
		return nil, err
	}
	defer utils.ZeroBytes(key)

	stream, err := newGCMStream(key, iv)
	if err != nil {
		return nil, err
	}

	header, err := EncodeHeader(salt, iv)
	if err != nil {
		return nil, err
	}

	out, err := os.Create(outputAbs)
	if err != nil {
		return nil, &kerrors.IOError{Op: "create", Path: outputAbs, Err: err}
	}
	defer out.Close()

	counter := &countingWriter{w: out}
	bw := bufio.NewWriterSize(counter, ioBufferSize)
	if _, err := bw.Write(header); err != nil {
		return nil, &kerrors.IOError{Op: "write", Path: outputAbs, Err: err}
	}

	result.Manifest = manifest.New(opts.Host, workspaceSource(result.Archived))

	sealer := newSealWriter(stream, bw)
	gz, err := gzip.NewWriterLevel(sealer, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("creating gzip writer: %w", err)
	}
	tw := tar.NewWriter(gz)

	if err := writeManifest(tw, result.Manifest); err != nil {
		return nil, wrapWrite(err, outputAbs)
	}

	for _, src := range result.Archived {
		log.Infof("Archiving %s as %s/", src, filepath.Base(src))
		if err := addDirectory(tw, roots[src], filepath.Base(src), outputReal, result, log); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, wrapWrite(err, outputAbs)
	}
	if err := gz.Close(); err != nil {
		return nil, wrapWrite(err, outputAbs)
	}

	if _, err := bw.Write(sealer.Tag()); err != nil {
		return nil, &kerrors.IOError{Op: "write", Path: outputAbs, Err: err}
	}
	if err := bw.Flush(); err != nil {
		return nil, &kerrors.IOError{Op: "write", Path: outputAbs, Err: err}
	}
	if err := out.Close(); err != nil {
		return nil, &kerrors.IOError{Op: "close", Path: outputAbs, Err: err}
	}

	result.BytesWritten = counter.n
	return result, nil
}

// workspaceSource picks the first archived directory that is not a
// configuration root; that is the workspace recorded in the manifest.
func workspaceSource(sources []string) string {
	for _, src := range sources {
		if !IsConfigRoot(filepath.Base(src)) {
			return src
		}
	}
	return ""
}

func writeManifest(tw *tar.Writer, m *manifest.Manifest) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     ManifestName,
		Mode:     0600,
		Size:     int64(len(data)),
		ModTime:  m.CreatedAt,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = tw.Write(data)
	return err
}

// resolveOutput returns the symlink-free location of the archive being
// written, so it is recognized when a source is walked through its target.
// The file may not exist yet, so only its directory is resolved.
func resolveOutput(outputAbs string) string {
	dir, err := filepath.EvalSymlinks(filepath.Dir(outputAbs))
	if err != nil {
		return outputAbs
	}
	return filepath.Join(dir, filepath.Base(outputAbs))
}

// addDirectory archives the directory tree at root under the entry name
// base. root must not be a symlink. Only directories and regular files are
// stored.
func addDirectory(tw *tar.Writer, root, base, outputAbs string, result *CreateResult, log logger.Logger) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return &kerrors.IOError{Op: "read", Path: p, Err: walkErr}
		}
		if p == outputAbs {
			log.Debugf("Skipping the archive being written: %s", p)
			return nil
		}
		if !d.IsDir() && !d.Type().IsRegular() {
			log.Debugf("Skipping special file: %s", p)
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return &kerrors.IOError{Op: "stat", Path: p, Err: err}
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("getting relative path: %w", err)
		}
		name := filepath.ToSlash(filepath.Join(base, rel))

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return fmt.Errorf("creating tar header for %s: %w", p, err)
		}
		hdr.Name = name
		if d.IsDir() {
			hdr.Name += "/"
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return wrapWrite(err, outputAbs)
		}
		if d.IsDir() {
			result.DirCount++
			return nil
		}

		if err := copyFileInto(tw, p); err != nil {
			return err
		}
		result.FileCount++
		log.Debugf("Added %s", name)
		return nil
	})
}

func copyFileInto(tw *tar.Writer, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return &kerrors.IOError{Op: "open", Path: p, Err: err}
	}
	defer f.Close()

	if _, err := io.Copy(tw, f); err != nil {
		return &kerrors.IOError{Op: "read", Path: p, Err: err}
	}
	return nil
}

// wrapWrite tags errors surfacing from the compress/encrypt/write chain
// with the output path unless they already carry one.
func wrapWrite(err error, outputAbs string) error {
	if _, ok := err.(*kerrors.IOError); ok {
		return err
	}
	return &kerrors.IOError{Op: "write", Path: outputAbs, Err: err}
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("generating random bytes: %w", err)
	}
	return b, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
