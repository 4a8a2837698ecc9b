package utils

import (
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/claw-migrator/internal/configs"
	"github.com/PolarWolf314/claw-migrator/internal/ui"
)

// TildePath shows a path inside home as "~/...". Other paths are returned
// unchanged.
func TildePath(path, home string) string {
	if home == "" || !filepath.IsAbs(path) {
		return path
	}
	if path == home {
		return "~"
	}
	rel, err := filepath.Rel(home, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return "~" + string(filepath.Separator) + rel
}

// FormatPaths renders paths as an indented bullet list, one per line,
// starting on a new line.
func FormatPaths(paths []string) string {
	home := configs.UserMigratorSettings.HomeDir

	var b strings.Builder
	b.WriteString("\n")
	for _, path := range paths {
		b.WriteString("    - ")
		b.WriteString(ui.Path.Sprint(TildePath(path, home)))
		b.WriteString("\n")
	}
	return b.String()
}
