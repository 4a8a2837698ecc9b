package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Version is the manifest schema version written by this build.
const Version = 1

// Manifest describes the exporting host and the original locations of the
// exported directories. It is the first entry of every archive.
type Manifest struct {
	ID                string    `json:"id"`
	Version           int       `json:"version"`
	Env               Env       `json:"env"`
	WorkspaceOriginal *string   `json:"workspaceOriginal"`
	Home              string    `json:"home"`
	CreatedAt         time.Time `json:"createdAt"`
}

type Env struct {
	Runtime  string `json:"runtime"`
	Platform string `json:"platform"`
	Arch     string `json:"arch"`
}

// New builds the manifest for an export from host. workspace is the
// absolute path of the exported workspace directory, or "" when none was
// exported.
func New(host Host, workspace string) *Manifest {
	m := &Manifest{
		ID:      uuid.New().String(),
		Version: Version,
		Env: Env{
			Runtime:  host.Runtime,
			Platform: host.Platform,
			Arch:     host.Arch,
		},
		Home:      host.Home,
		CreatedAt: host.Now().UTC(),
	}
	if workspace != "" {
		m.WorkspaceOriginal = &workspace
	}
	return m
}

// Workspace returns the original workspace path, or "" when the export had none.
func (m *Manifest) Workspace() string {
	if m == nil || m.WorkspaceOriginal == nil {
		return ""
	}
	return *m.WorkspaceOriginal
}

// Encode serializes the manifest as indented JSON.
func (m *Manifest) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a manifest.
func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}

// Load reads a manifest file. A missing file is reported with an error
// matching fs.ErrNotExist.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
