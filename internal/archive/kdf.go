package archive

import (
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// scrypt cost parameters for AlgorithmAESGCMScrypt. Changing them breaks
// every existing archive; a new algorithm id is required instead.
const (
	scryptN = 1 << 14
	scryptR = 8
	scryptP = 1

	KeySize = 32
)

// DeriveKey derives the AES-256 key for an archive from a password and salt.
func DeriveKey(password, salt []byte) ([]byte, error) {
	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, KeySize)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	return key, nil
}
