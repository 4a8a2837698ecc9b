package archive

import (
	"bytes"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/claw-migrator/internal/errors"
)

// Format constants for the archive preamble.
const (
	Magic = "OCM1"

	FormatVersion = 1

	// AlgorithmAESGCMScrypt is AES-256-GCM keyed by scrypt(password, salt).
	AlgorithmAESGCMScrypt = 1

	SaltSize = 16
	IVSize   = 12
	TagSize  = 16

	// fixedHeaderSize covers magic, version, algorithm id and the two length bytes.
	fixedHeaderSize = len(Magic) + 4
)

// Header is the unencrypted preamble of an archive.
type Header struct {
	Version   byte
	Algorithm byte
	Salt      []byte
	IV        []byte
}

// EncodeHeader serializes the preamble for the supported version and algorithm.
func EncodeHeader(salt, iv []byte) ([]byte, error) {
	if len(salt) > 255 || len(iv) > 255 {
		return nil, fmt.Errorf("salt (%d bytes) and iv (%d bytes) must each fit in one length byte", len(salt), len(iv))
	}

	var buf bytes.Buffer
	buf.Grow(fixedHeaderSize + len(salt) + len(iv))
	buf.WriteString(Magic)
	buf.WriteByte(FormatVersion)
	buf.WriteByte(AlgorithmAESGCMScrypt)
	buf.WriteByte(byte(len(salt)))
	buf.WriteByte(byte(len(iv)))
	buf.Write(salt)
	buf.Write(iv)
	return buf.Bytes(), nil
}

// DecodeHeader consumes exactly the preamble from r.
func DecodeHeader(r io.Reader) (*Header, error) {
	var fixed [fixedHeaderSize]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return nil, &kerrors.FormatError{Reason: "archive header is truncated", Err: err}
	}

	if string(fixed[:len(Magic)]) != Magic {
		return nil, &kerrors.FormatError{Reason: fmt.Sprintf("bad magic %q", fixed[:len(Magic)])}
	}

	h := &Header{
		Version:   fixed[4],
		Algorithm: fixed[5],
	}
	if h.Version != FormatVersion {
		return nil, &kerrors.FormatError{Reason: fmt.Sprintf("unsupported version %d", h.Version)}
	}
	if h.Algorithm != AlgorithmAESGCMScrypt {
		return nil, &kerrors.FormatError{Reason: fmt.Sprintf("unsupported algorithm %d", h.Algorithm)}
	}

	saltLen, ivLen := int(fixed[6]), int(fixed[7])
	if saltLen != SaltSize || ivLen != IVSize {
		return nil, &kerrors.FormatError{Reason: fmt.Sprintf("unsupported salt/iv lengths %d/%d", saltLen, ivLen)}
	}

	rest := make([]byte, saltLen+ivLen)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, &kerrors.FormatError{Reason: "archive header is truncated", Err: err}
	}
	h.Salt = rest[:saltLen]
	h.IV = rest[saltLen:]
	return h, nil
}
