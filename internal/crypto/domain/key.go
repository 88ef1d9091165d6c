package domain

import (
	"fmt"
)

// KeyConfig carries the configured key text into the codec.
//
// Key is interpreted as raw bytes (its UTF-8 encoding), never decoded or derived.
// A 32-character ASCII string is the expected form.
type KeyConfig struct {
	Key string
}

// String hides the key so a KeyConfig can be logged or printed safely.
func (c KeyConfig) String() string {
	if c.Key == "" {
		return "KeyConfig{Key: <unset>}"
	}
	return "KeyConfig{Key: <redacted>}"
}

// KeyMaterial is validated AES-256 key material.
type KeyMaterial struct {
	key []byte
}

// NewKeyMaterial validates key text and copies its bytes.
//
// Returns ErrMissingKey for an empty string and ErrInvalidKeyLength when the byte
// length differs from KeySize. The length in the error is the observed byte count;
// the key itself is never included.
func NewKeyMaterial(key string) (*KeyMaterial, error) {
	if key == "" {
		return nil, ErrMissingKey
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeyLength, len(key))
	}
	return &KeyMaterial{key: []byte(key)}, nil
}

// Bytes returns the key bytes. The slice must not be modified.
func (k *KeyMaterial) Bytes() []byte {
	return k.key
}

// Close zeroes the key bytes. The KeyMaterial must not be used afterwards.
func (k *KeyMaterial) Close() {
	Zero(k.key)
	k.key = nil
}

// String hides the key bytes.
func (k *KeyMaterial) String() string {
	return "KeyMaterial{<redacted>}"
}
