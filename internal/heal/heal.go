package heal

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/claw-migrator/internal/archive"
	kerrors "github.com/PolarWolf314/claw-migrator/internal/errors"
	logger "github.com/PolarWolf314/claw-migrator/internal/logging"
	"github.com/PolarWolf314/claw-migrator/internal/manifest"
)

// Configuration file names inside the restored configuration root, in
// lookup order.
const (
	ConfigFileName       = "openclaw.json"
	LegacyConfigFileName = "clawdbot.json"
)

// Options configures FixPaths.
type Options struct {
	// TargetDir is the directory a previous restore unpacked into.
	TargetDir string

	// Host supplies the current home directory.
	Host manifest.Host

	// BoundaryAware restricts matches to occurrences followed by the end of
	// the string or a path separator, so "/home/al" no longer matches inside
	// "/home/alice".
	BoundaryAware bool

	Logger logger.Logger
}

// Result describes what FixPaths did.
type Result struct {
	// ConfigPath is the healed file, or "" when none was found.
	ConfigPath    string
	ManifestFound bool
	NewWorkspace  string

	// HomeReplacements and WorkspaceReplacements count string rewrites.
	HomeReplacements      int
	WorkspaceReplacements int

	// Changed reports whether the file on disk was rewritten.
	Changed bool
}

// FixPaths rewrites path references in a restored configuration file so
// they point at the current host:
//
//  1. occurrences of the exporting host's home directory are replaced with
//     the current one, when they differ;
//  2. agents.defaults.workspace, and a top-level workspace field if present,
//     are set to <target>/.openclaw/workspace;
//  3. remaining occurrences of the original workspace path are replaced with
//     the new workspace.
//
// A missing configuration file is not an error. A missing manifest only
// skips steps 1 and 3.
func FixPaths(opts Options) (*Result, error) {
	log := opts.Logger.Named("heal")

	targetAbs, err := filepath.Abs(opts.TargetDir)
	if err != nil {
		return nil, fmt.Errorf("resolving target directory: %w", err)
	}

	result := &Result{
		NewWorkspace: filepath.Join(targetAbs, archive.ConfigRoot, archive.WorkspaceDir),
	}

	configPath, info, err := findConfig(targetAbs)
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		log.Infof("No configuration file under %s, nothing to fix", filepath.Join(targetAbs, archive.ConfigRoot))
		return result, nil
	}
	result.ConfigPath = configPath

	original, err := os.ReadFile(configPath)
	if err != nil {
		return nil, &kerrors.IOError{Op: "read", Path: configPath, Err: err}
	}
	doc, err := Parse(original)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", kerrors.ErrInvalidConfig, configPath, err)
	}
	if doc.Kind != KindObject {
		return nil, fmt.Errorf("%w: %s: top-level value is not an object", kerrors.ErrInvalidConfig, configPath)
	}

	m, err := loadManifest(filepath.Join(targetAbs, archive.ManifestName), log)
	if err != nil {
		return nil, err
	}
	result.ManifestFound = m != nil

	match := substitute
	if opts.BoundaryAware {
		match = substituteAtBoundary
	}

	oldHome, newHome := m.homeDirs(opts.Host)
	if oldHome != newHome {
		log.Infof("Replacing home directory %s with %s", oldHome, newHome)
		result.HomeReplacements = doc.ReplaceStrings(match(oldHome, newHome))
	}

	agents := ensureObject(doc, "agents")
	defaults := ensureObject(agents, "defaults")
	defaults.Set("workspace", StringNode(result.NewWorkspace))
	if doc.Get("workspace") != nil {
		doc.Set("workspace", StringNode(result.NewWorkspace))
	}

	if oldWorkspace := m.Workspace(); oldWorkspace != "" {
		for _, old := range workspaceVariants(oldWorkspace, oldHome, newHome, match) {
			if old == result.NewWorkspace {
				continue
			}
			log.Infof("Replacing workspace %s with %s", old, result.NewWorkspace)
			result.WorkspaceReplacements += doc.ReplaceStrings(match(old, result.NewWorkspace))
		}
	}

	healed, err := Format(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", configPath, err)
	}
	if bytes.Equal(healed, original) {
		log.Debugf("%s already points at this host", configPath)
		return result, nil
	}

	if err := os.WriteFile(configPath, healed, info.Mode().Perm()); err != nil {
		return nil, &kerrors.IOError{Op: "write", Path: configPath, Err: err}
	}
	result.Changed = true
	return result, nil
}

func findConfig(targetAbs string) (string, fs.FileInfo, error) {
	for _, name := range []string{ConfigFileName, LegacyConfigFileName} {
		p := filepath.Join(targetAbs, archive.ConfigRoot, name)
		info, err := os.Stat(p)
		if err == nil && info.Mode().IsRegular() {
			return p, info, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", nil, &kerrors.IOError{Op: "stat", Path: p, Err: err}
		}
	}
	return "", nil, nil
}

// loadManifest returns nil when the manifest is absent or unreadable as
// JSON; healing then only rewrites the workspace fields.
func loadManifest(path string, log logger.Logger) (*manifestView, error) {
	m, err := manifest.Load(path)
	if err != nil {
		var pathErr *fs.PathError
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Infof("No manifest found at %s", path)
			return nil, nil
		case errors.As(err, &pathErr):
			return nil, &kerrors.IOError{Op: "read", Path: path, Err: err}
		default:
			log.Warnf("Ignoring unreadable manifest %s: %v", path, err)
			return nil, nil
		}
	}
	return &manifestView{m}, nil
}

// manifestView makes a missing manifest behave like one with no facts.
type manifestView struct {
	*manifest.Manifest
}

func (v *manifestView) homeDirs(host manifest.Host) (oldHome, newHome string) {
	if v == nil || v.Home == "" || host.Home == "" {
		return "", ""
	}
	return v.Home, host.Home
}

func (v *manifestView) Workspace() string {
	if v == nil {
		return ""
	}
	return v.Manifest.Workspace()
}

// workspaceVariants lists the forms the original workspace path can take
// after the home rewrite: as recorded, and with its home prefix translated.
func workspaceVariants(workspace, oldHome, newHome string, match matcher) []string {
	variants := []string{workspace}
	if oldHome == newHome {
		return variants
	}
	if translated, n := match(oldHome, newHome)(workspace); n > 0 && translated != workspace {
		variants = append(variants, translated)
	}
	return variants
}

// ensureObject returns the object member key of parent, creating it (or
// replacing a non-object value) when needed.
func ensureObject(parent *Node, key string) *Node {
	child := parent.Get(key)
	if child != nil && child.Kind == KindObject {
		return child
	}
	child = ObjectNode()
	parent.Set(key, child)
	return child
}

type matcher func(old, replacement string) func(string) (string, int)

func substitute(old, replacement string) func(string) (string, int) {
	return func(s string) (string, int) {
		if old == "" {
			return s, 0
		}
		n := strings.Count(s, old)
		if n == 0 {
			return s, 0
		}
		return strings.ReplaceAll(s, old, replacement), n
	}
}

func substituteAtBoundary(old, replacement string) func(string) (string, int) {
	return func(s string) (string, int) {
		if old == "" {
			return s, 0
		}
		var b strings.Builder
		count := 0
		rest := s
		for {
			i := strings.Index(rest, old)
			if i < 0 {
				break
			}
			end := i + len(old)
			if end == len(rest) || rest[end] == '/' || rest[end] == '\\' {
				b.WriteString(rest[:i])
				b.WriteString(replacement)
				count++
			} else {
				b.WriteString(rest[:end])
			}
			rest = rest[end:]
		}
		if count == 0 {
			return s, 0
		}
		b.WriteString(rest)
		return b.String(), count
	}
}
