// Package domain defines the envelope format and key material used to seal
// credentials at rest.
//
// An envelope is salt ‖ nonce ‖ tag ‖ ciphertext, sealed with AES-256-GCM under a
// single 32-byte key and rendered as standard base64. The field widths and order
// are a storage contract: envelopes written by earlier deployments must keep
// decrypting, so none of these values may change.
package domain

const (
	// KeySize is the exact length of the AES-256 key material in bytes.
	KeySize = 32

	// SaltSize is the width of the leading salt field.
	//
	// The salt is random per envelope and is not fed into any key derivation or
	// authenticated; the key is used as configured.
	SaltSize = 64

	// NonceSize is the GCM nonce width. GCM's standard nonce is 12 bytes; the
	// stored format uses 16, which GCM accepts by hashing the nonce into its
	// initial counter block.
	NonceSize = 16

	// TagSize is the GCM authentication tag width.
	TagSize = 16

	// HeaderSize is the number of fixed bytes preceding the ciphertext and the
	// minimum decoded length of a well-formed envelope.
	HeaderSize = SaltSize + NonceSize + TagSize

	// GeneratedKeyBytes is the amount of entropy behind a generated key. Its hex
	// form is KeySize characters long, so it can be used directly as key text.
	GeneratedKeyBytes = KeySize / 2
)
