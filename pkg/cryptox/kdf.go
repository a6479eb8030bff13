package cryptox

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveKey expands secret into a size-byte key bound to purpose using
// HKDF-SHA256. Distinct purposes yield independent keys from one secret.
func DeriveKey(secret []byte, purpose string, size int) ([]byte, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("secret must not be empty")
	}
	if size <= 0 {
		return nil, fmt.Errorf("key size must be positive, got %d", size)
	}

	key := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(purpose)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}
