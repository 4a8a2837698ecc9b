package workflows

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/PolarWolf314/claw-migrator/internal/archive"
	"github.com/PolarWolf314/claw-migrator/internal/audit"
	"github.com/PolarWolf314/claw-migrator/internal/configs"
	kerrors "github.com/PolarWolf314/claw-migrator/internal/errors"
	logger "github.com/PolarWolf314/claw-migrator/internal/logging"
	"github.com/PolarWolf314/claw-migrator/internal/manifest"
)

// ExportOptions configures the export workflow.
type ExportOptions struct {
	// Sources are the directories to archive.
	// If empty, export.sources from the settings file is used.
	Sources []string

	// OutputPath is the archive to write.
	// If empty, export.output from the settings file is used.
	OutputPath string

	Password []byte

	Logger logger.Logger
}

// ExportResult contains the outcome of an export operation.
type ExportResult struct {
	// OutputPath is the absolute path of the written archive.
	OutputPath string

	// ArchiveID is the manifest id embedded in the archive.
	ArchiveID string

	// Archived lists the source directories that were included.
	Archived []string

	// Skipped lists source directories that did not exist.
	Skipped []string

	// Workspace is the directory recorded as the original workspace, if any.
	Workspace string

	FileCount int
	DirCount  int

	// Size is the archive size in bytes.
	Size int64
}

// Export writes an encrypted archive of the configuration and workspace
// directories.
//
// Returns ErrPasswordRequired if no password was given.
// Returns ErrNoSources if neither options nor settings name a source.
// Returns an IOError if the archive cannot be written.
func Export(ctx context.Context, opts ExportOptions) (*ExportResult, error) {
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

	sources := opts.Sources
	if len(sources) == 0 {
		sources = config.Export.Sources
	}
	if len(sources) == 0 {
		return nil, kerrors.ErrNoSources
	}
	resolved := make([]string, 0, len(sources))
	for _, src := range sources {
		resolved = append(resolved, configs.ExpandHome(src))
	}

	output := opts.OutputPath
	if output == "" {
		output = config.Export.Output
	}
	output, err = filepath.Abs(configs.ExpandHome(output))
	if err != nil {
		return nil, fmt.Errorf("resolving output path: %w", err)
	}

	host, err := manifest.CurrentHost()
	if err != nil {
		return nil, err
	}

	opts.Logger.Infof("Archiving %d source(s) into %s", len(resolved), output)
	created, err := archive.Create(archive.CreateOptions{
		Sources:    resolved,
		OutputPath: output,
		Password:   opts.Password,
		Host:       host,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	if len(created.Archived) == 0 {
		opts.Logger.Warnf("None of the source directories exist; the archive only holds a manifest")
	}

	audit.Log(audit.Entry{
		Operation:   audit.OpExport,
		ArchiveID:   created.Manifest.ID,
		ArchivePath: output,
		Sources:     created.Archived,
		FilesCount:  created.FileCount,
		Skipped:     created.SkippedSources,
	})

	return &ExportResult{
		OutputPath: output,
		ArchiveID:  created.Manifest.ID,
		Archived:   created.Archived,
		Skipped:    created.SkippedSources,
		Workspace:  created.Manifest.Workspace(),
		FileCount:  created.FileCount,
		DirCount:   created.DirCount,
		Size:       created.BytesWritten,
	}, nil
}

// loadSettings loads the settings file and warns about keys it does not
// recognise.
func loadSettings(log logger.Logger) (*configs.Config, error) {
	config, unknown, err := configs.LoadConfig()
	if err != nil {
		return nil, err
	}
	for _, key := range unknown {
		log.Warnf("Ignoring unknown setting %q in %s", key, configs.UserMigratorSettings.SettingsPath)
	}
	return config, nil
}
