package workflows

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/claw-migrator/internal/archive"
	"github.com/PolarWolf314/claw-migrator/internal/audit"
	"github.com/PolarWolf314/claw-migrator/internal/configs"
	kerrors "github.com/PolarWolf314/claw-migrator/internal/errors"
	"github.com/PolarWolf314/claw-migrator/internal/heal"
	logger "github.com/PolarWolf314/claw-migrator/internal/logging"
	"github.com/PolarWolf314/claw-migrator/internal/manifest"
	"github.com/PolarWolf314/claw-migrator/internal/utils"
)

// ImportOptions configures the import workflow.
type ImportOptions struct {
	// ArchivePath is the archive to restore. Required.
	ArchivePath string

	// Destination receives the restored tree.
	// If empty, import.destination from the settings file is used.
	Destination string

	Password []byte

	// SkipHeal leaves the restored configuration untouched. The settings
	// file can also enable this with import.skip_heal.
	SkipHeal bool

	// StrictPaths enables boundary-aware path matching while healing. The
	// settings file can also enable this with heal.boundary_aware.
	StrictPaths bool

	Logger logger.Logger
}

// ImportResult contains the outcome of an import operation.
type ImportResult struct {
	// Destination is the absolute restore directory.
	Destination string

	// ArchiveID is the manifest id, or "" when the archive had no manifest.
	ArchiveID string

	Restore *archive.RestoreResult

	// Heal is nil when healing was skipped.
	Heal *heal.Result
}

// Import restores an archive into the destination directory, creating it if
// needed, and then heals the restored configuration for this host.
//
// Returns ErrFileNotFound if the archive does not exist.
// Returns ErrInvalidFormat if the file is not a supported archive.
// Returns ErrAuthenticationFailed for a wrong password or a damaged archive.
// Once the restore has started, the result is returned with any error so the
// caller can see what was written.
func Import(ctx context.Context, opts ImportOptions) (*ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(opts.Password) == 0 {
		return nil, kerrors.ErrPasswordRequired
	}

	config, err := loadSettings(opts.Logger)
	if err != nil {
		return nil, err
	}

	archivePath, err := filepath.Abs(configs.ExpandHome(opts.ArchivePath))
	if err != nil {
		return nil, fmt.Errorf("resolving archive path: %w", err)
	}
	if !utils.FileExists(archivePath) {
		return nil, fmt.Errorf("%w: archive %s", kerrors.ErrFileNotFound, archivePath)
	}

	requested := opts.Destination
	if requested == "" {
		requested = config.Import.Destination
	}
	requested = configs.ExpandHome(requested)
	destination, err := utils.EnsureDir(requested)
	if err != nil {
		return nil, &kerrors.IOError{Op: "mkdir", Path: requested, Err: err}
	}

	opts.Logger.Infof("Restoring %s into %s", archivePath, destination)
	restored, err := archive.Restore(archive.RestoreOptions{
		ArchivePath: archivePath,
		TargetDir:   destination,
		Password:    opts.Password,
		Logger:      opts.Logger,
	})
	result := &ImportResult{Destination: destination, Restore: restored}
	if err != nil {
		// Restore may be a partial result; the caller reports what was written.
		return result, err
	}

	if restored.ManifestFound {
		if m, err := manifest.Load(filepath.Join(destination, archive.ManifestName)); err == nil {
			result.ArchiveID = m.ID
		}
	} else {
		opts.Logger.Warnf("Archive has no manifest; paths can only be partially healed")
	}

	if err := ctx.Err(); err != nil {
		logImport(result, archivePath)
		return result, err
	}

	if opts.SkipHeal || config.Import.SkipHeal {
		opts.Logger.Infof("Skipping path healing")
	} else {
		healed, healErr := fixPaths(destination, opts.StrictPaths || config.Heal.BoundaryAware, opts.Logger)
		if healErr != nil {
			logImport(result, archivePath)
			return result, fmt.Errorf("restored, but healing paths failed: %w", healErr)
		}
		result.Heal = healed
	}

	logImport(result, archivePath)
	return result, nil
}

// logImport records a completed restore, whether or not healing succeeded.
func logImport(result *ImportResult, archivePath string) {
	audit.Log(audit.Entry{
		Operation:   audit.OpImport,
		ArchiveID:   result.ArchiveID,
		ArchivePath: archivePath,
		TargetDir:   result.Destination,
		FilesCount:  len(result.Restore.Files),
		Skipped:     result.Restore.Rejected,
		Healed:      result.Heal != nil && result.Heal.Changed,
	})
}

func fixPaths(target string, boundaryAware bool, log logger.Logger) (*heal.Result, error) {
	host, err := manifest.CurrentHost()
	if err != nil {
		return nil, err
	}
	return heal.FixPaths(heal.Options{
		TargetDir:     target,
		Host:          host,
		BoundaryAware: boundaryAware,
		Logger:        log,
	})
}

// isMissingDir reports whether dir does not exist.
func isMissingDir(dir string) bool {
	_, err := os.Stat(dir)
	return errors.Is(err, os.ErrNotExist)
}
