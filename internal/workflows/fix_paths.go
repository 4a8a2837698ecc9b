package workflows

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/PolarWolf314/claw-migrator/internal/audit"
	"github.com/PolarWolf314/claw-migrator/internal/configs"
	kerrors "github.com/PolarWolf314/claw-migrator/internal/errors"
	"github.com/PolarWolf314/claw-migrator/internal/heal"
	logger "github.com/PolarWolf314/claw-migrator/internal/logging"
)

// FixPathsOptions configures the fix-paths workflow.
type FixPathsOptions struct {
	// TargetDir is a directory a previous import restored into.
	// If empty, import.destination from the settings file is used.
	TargetDir string

	// StrictPaths enables boundary-aware matching; heal.boundary_aware in
	// the settings file has the same effect.
	StrictPaths bool

	Logger logger.Logger
}

// FixPaths heals the configuration under an already restored tree.
//
// Returns ErrFileNotFound if the target directory does not exist.
// Returns ErrInvalidConfig if the configuration file is not valid JSON.
func FixPaths(ctx context.Context, opts FixPathsOptions) (*heal.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	config, err := loadSettings(opts.Logger)
	if err != nil {
		return nil, err
	}

	target := opts.TargetDir
	if target == "" {
		target = config.Import.Destination
	}
	target, err = filepath.Abs(configs.ExpandHome(target))
	if err != nil {
		return nil, fmt.Errorf("resolving target directory: %w", err)
	}
	if isMissingDir(target) {
		return nil, fmt.Errorf("%w: directory %s", kerrors.ErrFileNotFound, target)
	}

	result, err := fixPaths(target, opts.StrictPaths || config.Heal.BoundaryAware, opts.Logger)
	if err != nil {
		return nil, err
	}

	audit.Log(audit.Entry{
		Operation: audit.OpFixPaths,
		TargetDir: target,
		Healed:    result.Changed,
	})
	return result, nil
}
