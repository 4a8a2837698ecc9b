package archive

import (
	"archive/tar"
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	kerrors "github.com/PolarWolf314/claw-migrator/internal/errors"
	"github.com/PolarWolf314/claw-migrator/internal/manifest"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPassword = []byte("correct horse battery staple")

func testHost() manifest.Host {
	return manifest.Host{
		Home:     "/home/alice",
		Runtime:  "go1.23.7",
		Platform: "linux",
		Arch:     "amd64",
		Clock:    func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

// fixtureHome lays out a legacy configuration directory and a workspace.
func fixtureHome(t *testing.T) (home string, files map[string][]byte) {
	t.Helper()
	home = t.TempDir()

	blob := make([]byte, 200*1024)
	_, err := rand.Read(blob)
	require.NoError(t, err)

	files = map[string][]byte{
		".clawdbot/clawdbot.json":          []byte(`{"agents":{"defaults":{"workspace":"/home/alice/clawd"}}}`),
		".clawdbot/agents/main/state.json": []byte(`{"ok":true}`),
		"clawd/MEMORY.md":                  []byte("# memory\n"),
		"clawd/skills/deep/blob.bin":       blob,
		"clawd/empty.txt":                  {},
	}
	for rel, data := range files {
		writeFile(t, filepath.Join(home, filepath.FromSlash(rel)), data)
	}
	require.NoError(t, os.MkdirAll(filepath.Join(home, "clawd", "empty-dir"), 0755))
	return home, files
}

func createArchive(t *testing.T, sources []string, output string) *CreateResult {
	t.Helper()
	result, err := Create(CreateOptions{
		Sources:    sources,
		OutputPath: output,
		Password:   testPassword,
		Host:       testHost(),
	})
	require.NoError(t, err)
	return result
}

func TestCreateRestore_RoundTrip(t *testing.T) {
	home, files := fixtureHome(t)
	output := filepath.Join(t.TempDir(), "backup.oca")

	created := createArchive(t, []string{
		filepath.Join(home, ".clawdbot"),
		filepath.Join(home, "clawd"),
		filepath.Join(home, "missing"),
	}, output)

	assert.Equal(t, []string{filepath.Join(home, "missing")}, created.SkippedSources)
	assert.Len(t, created.Archived, 2)
	assert.Equal(t, len(files), created.FileCount)
	assert.Equal(t, filepath.Join(home, "clawd"), created.Manifest.Workspace())
	assert.Equal(t, "/home/alice", created.Manifest.Home)

	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Equal(t, created.BytesWritten, info.Size())

	target := t.TempDir()
	restored, err := Restore(RestoreOptions{ArchivePath: output, TargetDir: target, Password: testPassword})
	require.NoError(t, err)
	assert.True(t, restored.ManifestFound)
	assert.Empty(t, restored.Rejected)

	mapped := map[string]string{
		".clawdbot/clawdbot.json":          ".openclaw/clawdbot.json",
		".clawdbot/agents/main/state.json": ".openclaw/agents/main/state.json",
		"clawd/MEMORY.md":                  ".openclaw/workspace/MEMORY.md",
		"clawd/skills/deep/blob.bin":       ".openclaw/workspace/skills/deep/blob.bin",
		"clawd/empty.txt":                  ".openclaw/workspace/empty.txt",
	}
	for src, dst := range mapped {
		got, err := os.ReadFile(filepath.Join(target, filepath.FromSlash(dst)))
		require.NoError(t, err, dst)
		assert.True(t, bytes.Equal(files[src], got), "content of %s", dst)
	}
	assert.DirExists(t, filepath.Join(target, ".openclaw", "workspace", "empty-dir"))
	assert.NoDirExists(t, filepath.Join(target, ".clawdbot"))
	assert.NoDirExists(t, filepath.Join(target, "clawd"))

	m, err := manifest.Load(filepath.Join(target, ManifestName))
	require.NoError(t, err)
	assert.Equal(t, created.Manifest.ID, m.ID)
	assert.Equal(t, filepath.Join(home, "clawd"), m.Workspace())
}

func TestCreate_InteroperatesWithCipherGCM(t *testing.T) {
	home, _ := fixtureHome(t)
	output := filepath.Join(t.TempDir(), "backup.oca")
	createArchive(t, []string{filepath.Join(home, "clawd")}, output)

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	r := bytes.NewReader(data)
	header, err := DecodeHeader(r)
	require.NoError(t, err)
	sealed, err := io.ReadAll(r)
	require.NoError(t, err)

	key, err := DeriveKey(testPassword, header.Salt)
	require.NoError(t, err)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	aead, err := cipher.NewGCM(block)
	require.NoError(t, err)

	compressed, err := aead.Open(nil, header.IV, sealed, nil)
	require.NoError(t, err)

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	require.NoError(t, err)
	first, err := tar.NewReader(gz).Next()
	require.NoError(t, err)
	assert.Equal(t, ManifestName, first.Name)
}

func TestCreate_SkipsOutputInsideSource(t *testing.T) {
	home, _ := fixtureHome(t)
	output := filepath.Join(home, "clawd", "backup.oca")
	createArchive(t, []string{filepath.Join(home, "clawd")}, output)

	target := t.TempDir()
	restored, err := Restore(RestoreOptions{ArchivePath: output, TargetDir: target, Password: testPassword})
	require.NoError(t, err)

	assert.NotContains(t, restored.Files, ".openclaw/workspace/backup.oca")
	assert.NoFileExists(t, filepath.Join(target, ".openclaw", "workspace", "backup.oca"))
}

func TestCreate_NoSources(t *testing.T) {
	_, err := Create(CreateOptions{OutputPath: filepath.Join(t.TempDir(), "x.oca"), Password: testPassword})
	assert.ErrorIs(t, err, kerrors.ErrNoSources)
}

func TestCreate_OnlyMissingSources(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "backup.oca")
	created := createArchive(t, []string{filepath.Join(dir, "nope")}, output)
	assert.Nil(t, created.Manifest.WorkspaceOriginal)

	target := t.TempDir()
	restored, err := Restore(RestoreOptions{ArchivePath: output, TargetDir: target, Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, []string{ManifestName}, restored.Files)
}

func TestCreate_UnwritableOutput(t *testing.T) {
	home, _ := fixtureHome(t)
	_, err := Create(CreateOptions{
		Sources:    []string{filepath.Join(home, "clawd")},
		OutputPath: filepath.Join(home, "no", "such", "dir", "backup.oca"),
		Password:   testPassword,
		Host:       testHost(),
	})

	var ioErr *kerrors.IOError
	require.True(t, errors.As(err, &ioErr), "got %v", err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestRestore_WrongPassword(t *testing.T) {
	home, _ := fixtureHome(t)
	output := filepath.Join(t.TempDir(), "backup.oca")
	createArchive(t, []string{filepath.Join(home, ".clawdbot"), filepath.Join(home, "clawd")}, output)

	target := t.TempDir()
	_, err := Restore(RestoreOptions{ArchivePath: output, TargetDir: target, Password: []byte("wrong")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrAuthenticationFailed), "got %v", err)

	entries, err := os.ReadDir(target)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRestore_TamperDetection(t *testing.T) {
	home, _ := fixtureHome(t)
	output := filepath.Join(t.TempDir(), "backup.oca")
	createArchive(t, []string{filepath.Join(home, "clawd")}, output)

	original, err := os.ReadFile(output)
	require.NoError(t, err)
	headerLen := fixedHeaderSize + SaltSize + IVSize

	positions := map[string]int{
		"first ciphertext byte": headerLen,
		"middle":                headerLen + (len(original)-headerLen)/2,
		"last ciphertext byte":  len(original) - TagSize - 1,
		"first tag byte":        len(original) - TagSize,
		"last tag byte":         len(original) - 1,
	}

	for name, pos := range positions {
		t.Run(name, func(t *testing.T) {
			tampered := append([]byte(nil), original...)
			tampered[pos] ^= 0x80
			path := filepath.Join(t.TempDir(), "tampered.oca")
			require.NoError(t, os.WriteFile(path, tampered, 0600))

			_, err := Restore(RestoreOptions{ArchivePath: path, TargetDir: t.TempDir(), Password: testPassword})
			require.Error(t, err)
			assert.True(t, errors.Is(err, kerrors.ErrAuthenticationFailed), "got %v", err)
		})
	}
}

func TestRestore_TamperedTagReportsWrittenFiles(t *testing.T) {
	home, _ := fixtureHome(t)
	output := filepath.Join(t.TempDir(), "backup.oca")
	createArchive(t, []string{filepath.Join(home, "clawd")}, output)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	data[len(data)-1] ^= 0x01
	tampered := filepath.Join(t.TempDir(), "tampered.oca")
	require.NoError(t, os.WriteFile(tampered, data, 0600))

	target := t.TempDir()
	result, err := Restore(RestoreOptions{ArchivePath: tampered, TargetDir: target, Password: testPassword})
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrAuthenticationFailed), "got %v", err)

	// The plaintext was intact, so every entry reached disk before the tag check.
	require.NotNil(t, result)
	assert.Contains(t, result.Files, ".openclaw/workspace/MEMORY.md")
	for _, rel := range result.Files {
		_, statErr := os.Stat(filepath.Join(target, filepath.FromSlash(rel)))
		assert.NoError(t, statErr, rel)
	}
}

func TestRestore_Truncated(t *testing.T) {
	home, _ := fixtureHome(t)
	output := filepath.Join(t.TempDir(), "backup.oca")
	createArchive(t, []string{filepath.Join(home, "clawd")}, output)

	original, err := os.ReadFile(output)
	require.NoError(t, err)
	headerLen := fixedHeaderSize + SaltSize + IVSize

	t.Run("header only", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "short.oca")
		require.NoError(t, os.WriteFile(path, original[:headerLen+10], 0600))

		_, err := Restore(RestoreOptions{ArchivePath: path, TargetDir: t.TempDir(), Password: testPassword})
		assert.True(t, errors.Is(err, kerrors.ErrInvalidFormat), "got %v", err)
	})

	t.Run("payload cut short", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cut.oca")
		require.NoError(t, os.WriteFile(path, original[:len(original)-100], 0600))

		_, err := Restore(RestoreOptions{ArchivePath: path, TargetDir: t.TempDir(), Password: testPassword})
		assert.True(t, errors.Is(err, kerrors.ErrAuthenticationFailed), "got %v", err)
	})
}

func TestRestore_MissingArchive(t *testing.T) {
	_, err := Restore(RestoreOptions{
		ArchivePath: filepath.Join(t.TempDir(), "nope.oca"),
		TargetDir:   t.TempDir(),
		Password:    testPassword,
	})

	var ioErr *kerrors.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

type craftedEntry struct {
	name     string
	typeflag byte
	body     string
	mode     int64 // 0644 when zero
}

// writeCraftedArchive seals an arbitrary tar stream the way Create does,
// using the standard library AEAD.
func writeCraftedArchive(t *testing.T, path string, entries []craftedEntry) {
	t.Helper()

	var payload bytes.Buffer
	gz := gzip.NewWriter(&payload)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		mode := e.mode
		if mode == 0 {
			mode = 0644
		}
		hdr := &tar.Header{Name: e.name, Typeflag: e.typeflag, Mode: mode, Size: int64(len(e.body))}
		if e.typeflag == tar.TypeSymlink {
			hdr.Linkname = "/etc/passwd"
			hdr.Size = 0
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Size > 0 {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	salt := make([]byte, SaltSize)
	iv := make([]byte, IVSize)
	_, err := rand.Read(salt)
	require.NoError(t, err)
	_, err = rand.Read(iv)
	require.NoError(t, err)

	key, err := DeriveKey(testPassword, salt)
	require.NoError(t, err)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	aead, err := cipher.NewGCM(block)
	require.NoError(t, err)

	header, err := EncodeHeader(salt, iv)
	require.NoError(t, err)
	out := append(header, aead.Seal(nil, iv, payload.Bytes(), nil)...)
	require.NoError(t, os.WriteFile(path, out, 0600))
}

func TestRestore_RejectsTraversal(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "target")
	require.NoError(t, os.MkdirAll(target, 0755))
	path := filepath.Join(base, "evil.oca")

	writeCraftedArchive(t, path, []craftedEntry{
		{name: ManifestName, typeflag: tar.TypeReg, body: `{"version":1,"workspaceOriginal":null,"home":"/home/alice"}`},
		{name: "../../etc/passwd", typeflag: tar.TypeReg, body: "root::0:0"},
		{name: "/tmp/absolute-evil", typeflag: tar.TypeReg, body: "x"},
		{name: "clawd/../../../escape.txt", typeflag: tar.TypeReg, body: "x"},
		{name: "clawd/link", typeflag: tar.TypeSymlink},
		{name: ".clawdbot/clawdbot.json", typeflag: tar.TypeReg, body: "{}"},
	})

	result, err := Restore(RestoreOptions{ArchivePath: path, TargetDir: target, Password: testPassword})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"../../etc/passwd", "/tmp/absolute-evil", "clawd/../../../escape.txt"}, result.Rejected)
	assert.Equal(t, 1, result.Discarded)
	assert.ElementsMatch(t, []string{ManifestName, ".openclaw/clawdbot.json"}, result.Files)

	assert.NoFileExists(t, filepath.Join(base, "etc", "passwd"))
	assert.NoFileExists(t, filepath.Join(base, "escape.txt"))
	assert.NoFileExists(t, filepath.Join(target, ".openclaw", "workspace", "link"))
	assert.FileExists(t, filepath.Join(target, ".openclaw", "clawdbot.json"))
}

func TestRestore_ClampsFileMode(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "modes.oca")
	writeCraftedArchive(t, path, []craftedEntry{
		{name: ".openclaw/openclaw.json", typeflag: tar.TypeReg, body: "{}", mode: 0640},
		{name: ".openclaw/setuid.sh", typeflag: tar.TypeReg, body: "#!/bin/sh\n", mode: 04755},
	})

	target := t.TempDir()
	_, err := Restore(RestoreOptions{ArchivePath: path, TargetDir: target, Password: testPassword})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(target, ".openclaw", "openclaw.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())

	info, err = os.Stat(filepath.Join(target, ".openclaw", "setuid.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	assert.Zero(t, info.Mode()&(os.ModeSetuid|os.ModeSetgid|os.ModeSticky))
}

func TestCreateRestore_SymlinkedSource(t *testing.T) {
	home := t.TempDir()
	realDir := filepath.Join(home, "dotfiles", "openclaw")
	writeFile(t, filepath.Join(realDir, "openclaw.json"), []byte(`{"agents":{}}`))
	writeFile(t, filepath.Join(realDir, "agents", "main", "state.json"), []byte(`{"ok":true}`))
	link := filepath.Join(home, ".openclaw")
	if err := os.Symlink(realDir, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	output := filepath.Join(t.TempDir(), "backup.oca")
	created := createArchive(t, []string{link}, output)
	assert.Equal(t, []string{link}, created.Archived)
	assert.Empty(t, created.SkippedSources)
	assert.Equal(t, 2, created.FileCount)

	target := t.TempDir()
	restored, err := Restore(RestoreOptions{ArchivePath: output, TargetDir: target, Password: testPassword})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		ManifestName,
		".openclaw/openclaw.json",
		".openclaw/agents/main/state.json",
	}, restored.Files)

	got, err := os.ReadFile(filepath.Join(target, ".openclaw", "openclaw.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"agents":{}}`, string(got))
}

func TestCreate_DanglingSymlinkSourceIsSkipped(t *testing.T) {
	home := t.TempDir()
	link := filepath.Join(home, "clawd")
	if err := os.Symlink(filepath.Join(home, "gone"), link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	created := createArchive(t, []string{link}, filepath.Join(t.TempDir(), "backup.oca"))
	assert.Empty(t, created.Archived)
	assert.Equal(t, []string{link}, created.SkippedSources)
}
