// Package service implements the envelope codec: AES-256-GCM sealing of secrets
// into the salt ‖ nonce ‖ tag ‖ ciphertext envelope, SHA-256 digests and key
// generation.
package service

// AEAD seals and opens data with the tag carried separately from the ciphertext.
type AEAD interface {
	// Seal encrypts plaintext under nonce and returns ciphertext and tag.
	Seal(nonce, plaintext []byte) (ciphertext, tag []byte, err error)

	// Open authenticates and decrypts ciphertext; no plaintext is returned on failure.
	Open(nonce, ciphertext, tag []byte) ([]byte, error)
}

// EnvelopeCodec converts plaintext secrets to envelope text and back.
type EnvelopeCodec interface {
	// Encrypt seals plaintext into base64 envelope text.
	Encrypt(plaintext string) (string, error)

	// Decrypt opens envelope text produced by Encrypt.
	Decrypt(envelope string) (string, error)

	// Hash returns the lowercase hex SHA-256 digest of text.
	Hash(text string) string

	// GenerateKey returns 32 hex characters of fresh key material for provisioning.
	GenerateKey() (string, error)
}
