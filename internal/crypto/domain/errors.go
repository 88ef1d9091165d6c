package domain

import (
	"github.com/allisson/tokenvault/internal/errors"
)

// Envelope codec error definitions.
//
// Key problems and unexpected encryption failures wrap errors.ErrUnavailable: the
// service cannot seal or open anything until configuration is fixed. Malformed
// input and authentication failures wrap errors.ErrInvalidInput. None of these are
// transient and none should be retried.
var (
	// ErrMissingKey indicates no key material was configured.
	ErrMissingKey = errors.Wrap(errors.ErrUnavailable, "encryption key not set")

	// ErrInvalidKeyLength indicates the configured key is not exactly KeySize bytes.
	ErrInvalidKeyLength = errors.Wrap(errors.ErrUnavailable, "encryption key must be exactly 32 bytes")

	// ErrEncryptionFailed indicates sealing failed. It never carries the plaintext.
	ErrEncryptionFailed = errors.Wrap(errors.ErrUnavailable, "encryption failed")

	// ErrMalformedEnvelope indicates the input is not valid base64 or is shorter
	// than HeaderSize once decoded.
	ErrMalformedEnvelope = errors.Wrap(errors.ErrInvalidInput, "malformed envelope")

	// ErrDecryptionFailed indicates the authentication tag did not verify (tampered
	// data or wrong key) or the recovered plaintext is not valid UTF-8.
	//
	// The specific cause is not disclosed.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")
)
