package service

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	cryptoDomain "github.com/allisson/tokenvault/internal/crypto/domain"
)

// AESGCMCipher implements AEAD using AES-256-GCM with the envelope's 16-byte nonce.
//
// Go's GCM appends the tag to the ciphertext; the envelope stores the tag ahead of
// the ciphertext, so Seal and Open split and rejoin the two explicitly.
//
// The cipher holds no mutable state and is safe for concurrent use.
type AESGCMCipher struct {
	aead cipher.AEAD
}

// NewAESGCM creates a new AES-256-GCM cipher.
//
// The key must be exactly 32 bytes. The nonce size is fixed at
// cryptoDomain.NonceSize and the tag size at cryptoDomain.TagSize.
func NewAESGCM(key []byte) (*AESGCMCipher, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", cryptoDomain.ErrInvalidKeyLength, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, cryptoDomain.NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMCipher{aead: aead}, nil
}

// Seal encrypts plaintext under nonce and returns the ciphertext and tag separately.
// The ciphertext has the same length as the plaintext.
func (a *AESGCMCipher) Seal(nonce, plaintext []byte) (ciphertext, tag []byte, err error) {
	if len(nonce) != a.aead.NonceSize() {
		return nil, nil, fmt.Errorf("invalid nonce size: got %d bytes", len(nonce))
	}

	sealed := a.aead.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - a.aead.Overhead()

	return sealed[:split], sealed[split:], nil
}

// Open verifies tag over ciphertext and returns the plaintext.
//
// Authentication happens before any plaintext is produced: on a tag mismatch
// nothing is returned.
func (a *AESGCMCipher) Open(nonce, ciphertext, tag []byte) ([]byte, error) {
	if len(nonce) != a.aead.NonceSize() {
		return nil, fmt.Errorf("invalid nonce size: got %d bytes", len(nonce))
	}
	if len(tag) != a.aead.Overhead() {
		return nil, fmt.Errorf("invalid tag size: got %d bytes", len(tag))
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := a.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}
