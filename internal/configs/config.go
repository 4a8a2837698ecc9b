package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	kerrors "github.com/PolarWolf314/claw-migrator/internal/errors"
)

// Config is the user's settings file. Every field has a default, so a
// missing file behaves like DefaultConfig.
type Config struct {
	Export ExportConfig `toml:"export"`
	Import ImportConfig `toml:"import"`
	Heal   HealConfig   `toml:"heal"`
}

type ExportConfig struct {
	// Sources are exported when no --source flag is given. "~" expands to
	// the home directory.
	Sources []string `toml:"sources"`
	Output  string   `toml:"output"`
}

type ImportConfig struct {
	Destination string `toml:"destination"`
	SkipHeal    bool   `toml:"skip_heal"`
}

type HealConfig struct {
	BoundaryAware bool `toml:"boundary_aware"`
}

// DefaultConfig returns the built-in settings: export ~/.openclaw and
// ~/clawd to agent-backup.oca, and restore into the home directory.
func DefaultConfig() *Config {
	return &Config{
		Export: ExportConfig{
			Sources: []string{"~/.openclaw", "~/clawd"},
			Output:  "agent-backup.oca",
		},
		Import: ImportConfig{
			Destination: "~",
		},
	}
}

// LoadConfig reads the settings file, falling back to defaults for a
// missing file or missing keys. Unknown keys are returned so the caller can
// warn about typos.
func LoadConfig() (*Config, []string, error) {
	return LoadConfigFrom(UserMigratorSettings.SettingsPath)
}

// LoadConfigFrom is LoadConfig for an explicit path.
func LoadConfigFrom(path string) (*Config, []string, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return config, nil, nil
	}

	unknown, err := LoadTOML(path, config)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", kerrors.ErrInvalidConfig, path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, unknown, nil
}

// SaveConfig writes the settings file.
func SaveConfig(config *Config) error {
	if err := SaveTOML(UserMigratorSettings.SettingsPath, config); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// InitConfig writes the default settings file and returns its path. An
// existing file is only replaced when force is set.
func InitConfig(force bool) (string, error) {
	path := UserMigratorSettings.SettingsPath
	if _, err := os.Stat(path); err == nil && !force {
		return path, kerrors.ErrSettingsExist
	}

	if err := SaveConfig(DefaultConfig()); err != nil {
		return path, err
	}
	return path, nil
}

// Validate reports settings no command could act on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Export.Output) == "" {
		return fmt.Errorf("%w: export.output must not be empty", kerrors.ErrInvalidConfig)
	}
	for i, src := range c.Export.Sources {
		if strings.TrimSpace(src) == "" {
			return fmt.Errorf("%w: export.sources[%d] is empty", kerrors.ErrInvalidConfig, i)
		}
	}
	if strings.TrimSpace(c.Import.Destination) == "" {
		return fmt.Errorf("%w: import.destination must not be empty", kerrors.ErrInvalidConfig)
	}
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	home := UserMigratorSettings.HomeDir
	switch {
	case path == "~":
		return home
	case strings.HasPrefix(path, "~/"), strings.HasPrefix(path, `~\`):
		return filepath.Join(home, path[2:])
	}
	return path
}
