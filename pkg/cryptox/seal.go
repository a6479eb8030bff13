package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// SealKeySize is the AES-256 key length.
const SealKeySize = 32

// ErrUnseal reports ciphertext that is truncated, tampered with, or sealed
// under another key or associated data.
var ErrUnseal = errors.New("cryptox: unable to unseal data")

// Sealer encrypts small records with AES-256-GCM.
// The output format is: [12-byte nonce][encrypted data][16-byte auth tag]
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer returns a Sealer for a SealKeySize-byte key, usually obtained
// from DeriveKey.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != SealKeySize {
		return nil, fmt.Errorf("seal key must be %d bytes, got %d", SealKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Sealer{aead: gcm}, nil
}

// Seal encrypts plaintext under a fresh random nonce. The associated data is
// authenticated but not stored; Open must be given the same value.
func (s *Sealer) Seal(plaintext, associated []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, associated), nil
}

// Open decrypts data produced by Seal.
func (s *Sealer) Open(sealed, associated []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n+s.aead.Overhead() {
		return nil, ErrUnseal
	}

	plaintext, err := s.aead.Open(nil, sealed[:n], sealed[n:], associated)
	if err != nil {
		return nil, ErrUnseal
	}
	return plaintext, nil
}
