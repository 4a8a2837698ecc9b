package configs

import (
	"log"
	"os"
	"path/filepath"
)

// UserSettings holds the per-user locations of claw-migrator's own files.
type UserSettings struct {
	// ConfigDir is <os.UserConfigDir()>/claw-migrator.
	ConfigDir string

	// SettingsPath is the TOML settings file inside ConfigDir.
	SettingsPath string

	// HistoryPath is the JSON-lines operation history inside ConfigDir.
	HistoryPath string

	// HomeDir is the current user's home directory.
	HomeDir string
}

var UserMigratorSettings *UserSettings

func init() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("error getting home directory: %s", err)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatalf("error getting config directory: %s", err)
	}

	UserMigratorSettings = NewUserSettings(filepath.Join(configDir, "claw-migrator"), homeDir)
}

// NewUserSettings lays out the settings files under configDir.
func NewUserSettings(configDir, homeDir string) *UserSettings {
	return &UserSettings{
		ConfigDir:    configDir,
		SettingsPath: filepath.Join(configDir, "config.toml"),
		HistoryPath:  filepath.Join(configDir, "history.jsonl"),
		HomeDir:      homeDir,
	}
}
