package archive

import (
	"path"
	"strings"

	kerrors "github.com/PolarWolf314/claw-migrator/internal/errors"
)

// Container layout names.
const (
	// ConfigRoot is the canonical configuration directory name.
	ConfigRoot = ".openclaw"

	// LegacyConfigRoot is the configuration directory name used before the rename.
	LegacyConfigRoot = ".clawdbot"

	// WorkspaceDir is where workspace roots land beneath ConfigRoot.
	WorkspaceDir = "workspace"

	// ManifestName is the container entry holding the manifest.
	ManifestName = "manifest.json"
)

// IsConfigRoot reports whether name is a current or legacy configuration root.
func IsConfigRoot(name string) bool {
	return name == ConfigRoot || name == LegacyConfigRoot
}

// NormalizeEntryPath maps a container entry name onto its slash-separated
// location relative to the restore target:
//
//	.clawdbot/openclaw.json -> .openclaw/openclaw.json
//	clawd/MEMORY.md         -> .openclaw/workspace/MEMORY.md
//	manifest.json           -> manifest.json
//
// Names that are absolute, or whose normalized form contains a ".."
// segment, are rejected with a SecurityRejection.
func NormalizeEntryPath(name string) (string, error) {
	slashed := strings.ReplaceAll(name, `\`, "/")
	if path.IsAbs(slashed) || hasDriveLetter(slashed) {
		return "", &kerrors.SecurityRejection{Entry: name, Reason: "absolute path"}
	}

	for strings.HasPrefix(slashed, "./") {
		slashed = strings.TrimPrefix(slashed, "./")
	}
	slashed = strings.TrimSuffix(slashed, "/")
	if slashed == "" || slashed == "." {
		return "", &kerrors.SecurityRejection{Entry: name, Reason: "empty path"}
	}

	if hasParentSegment(slashed) {
		return "", &kerrors.SecurityRejection{Entry: name, Reason: "parent directory segment"}
	}

	top, rest, _ := strings.Cut(slashed, "/")

	var normalized string
	switch {
	case IsConfigRoot(top):
		normalized = joinSlash(ConfigRoot, rest)
	case slashed == ManifestName:
		normalized = ManifestName
	default:
		normalized = joinSlash(ConfigRoot+"/"+WorkspaceDir, rest)
	}

	if path.IsAbs(normalized) {
		return "", &kerrors.SecurityRejection{Entry: name, Reason: "absolute path"}
	}
	if hasParentSegment(normalized) {
		return "", &kerrors.SecurityRejection{Entry: name, Reason: "parent directory segment"}
	}
	return normalized, nil
}

func hasParentSegment(p string) bool {
	for _, segment := range strings.Split(p, "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}

func joinSlash(prefix, rest string) string {
	if rest == "" {
		return prefix
	}
	return prefix + "/" + rest
}

func hasDriveLetter(name string) bool {
	return len(name) >= 2 && name[1] == ':' &&
		(('a' <= name[0] && name[0] <= 'z') || ('A' <= name[0] && name[0] <= 'Z'))
}
