package configs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	kerrors "github.com/PolarWolf314/claw-migrator/internal/errors"
)

// useTempSettings points UserMigratorSettings at a temporary directory for
// the duration of the test.
func useTempSettings(t *testing.T) *UserSettings {
	t.Helper()
	old := UserMigratorSettings
	UserMigratorSettings = NewUserSettings(filepath.Join(t.TempDir(), "claw-migrator"), "/home/tester")
	t.Cleanup(func() { UserMigratorSettings = old })
	return UserMigratorSettings
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	useTempSettings(t)

	config, unknown, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(unknown) != 0 {
		t.Errorf("Expected no unknown keys, got %v", unknown)
	}

	defaults := DefaultConfig()
	if config.Export.Output != defaults.Export.Output {
		t.Errorf("Expected output %q, got %q", defaults.Export.Output, config.Export.Output)
	}
	if len(config.Export.Sources) != 2 {
		t.Errorf("Expected 2 default sources, got %v", config.Export.Sources)
	}
	if config.Import.Destination != "~" {
		t.Errorf("Expected destination ~, got %q", config.Import.Destination)
	}
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	settings := useTempSettings(t)

	content := "[heal]\nboundary_aware = true\n\n[export]\noutput = \"/backups/agent.oca\"\n"
	if err := os.MkdirAll(settings.ConfigDir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(settings.SettingsPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	config, _, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !config.Heal.BoundaryAware {
		t.Error("Expected boundary_aware to be true")
	}
	if config.Export.Output != "/backups/agent.oca" {
		t.Errorf("Expected output from file, got %q", config.Export.Output)
	}
	if len(config.Export.Sources) != 2 {
		t.Errorf("Expected default sources to survive, got %v", config.Export.Sources)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed toml", "[export\noutput = 1"},
		{"wrong type", "[export]\noutput = 5\n"},
		{"empty output", "[export]\noutput = \"\"\n"},
		{"empty source", "[export]\nsources = [\"~/clawd\", \" \"]\n"},
		{"empty destination", "[import]\ndestination = \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := useTempSettings(t)
			if err := os.MkdirAll(settings.ConfigDir, 0700); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(settings.SettingsPath, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}

			_, _, err := LoadConfig()
			if !errors.Is(err, kerrors.ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestInitConfig(t *testing.T) {
	settings := useTempSettings(t)

	path, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if path != settings.SettingsPath {
		t.Errorf("Expected path %q, got %q", settings.SettingsPath, path)
	}

	if _, err := InitConfig(false); !errors.Is(err, kerrors.ErrSettingsExist) {
		t.Errorf("Expected ErrSettingsExist on second init, got %v", err)
	}

	if _, err := InitConfig(true); err != nil {
		t.Errorf("Expected forced init to succeed, got %v", err)
	}

	config, unknown, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(unknown) != 0 {
		t.Errorf("Expected written defaults to round-trip, unknown keys %v", unknown)
	}
	if config.Export.Output != "agent-backup.oca" {
		t.Errorf("Unexpected output %q", config.Export.Output)
	}
}

func TestExpandHome(t *testing.T) {
	useTempSettings(t)

	tests := []struct {
		in   string
		want string
	}{
		{"~", "/home/tester"},
		{"~/clawd", filepath.Join("/home/tester", "clawd")},
		{"/abs/path", "/abs/path"},
		{"relative/~", "relative/~"},
		{"~other/x", "~other/x"},
	}
	for _, tt := range tests {
		if got := ExpandHome(tt.in); got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
