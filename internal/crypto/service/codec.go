package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"unicode/utf8"

	cryptoDomain "github.com/allisson/tokenvault/internal/crypto/domain"
)

// EnvelopeCodecService implements EnvelopeCodec with AES-256-GCM.
//
// The key is validated on first use and the resulting cipher is cached for the
// lifetime of the codec. A missing or wrong-sized key is reported by every
// Encrypt and Decrypt call, so a misconfigured process fails loudly rather than
// storing anything it could not read back.
//
// Envelope layout (see cryptoDomain constants):
//
//	salt(64) ‖ nonce(16) ‖ tag(16) ‖ ciphertext(len(plaintext))
//
// Example:
//
//	codec := NewEnvelopeCodec(cryptoDomain.KeyConfig{Key: cfg.EncryptionKey})
//	envelope, err := codec.Encrypt(string(tokenJSON))
//	if err != nil {
//	    return err
//	}
//	plaintext, err := codec.Decrypt(envelope)
type EnvelopeCodecService struct {
	cfg  cryptoDomain.KeyConfig
	rand io.Reader

	once    sync.Once
	aead    AEAD
	initErr error
}

// CodecOption configures an EnvelopeCodecService.
type CodecOption func(*EnvelopeCodecService)

// WithRandReader replaces crypto/rand as the source of salts, nonces and generated keys.
// Intended for deterministic tests only.
func WithRandReader(r io.Reader) CodecOption {
	return func(c *EnvelopeCodecService) {
		c.rand = r
	}
}

// NewEnvelopeCodec creates a codec bound to the given key configuration.
func NewEnvelopeCodec(cfg cryptoDomain.KeyConfig, opts ...CodecOption) *EnvelopeCodecService {
	c := &EnvelopeCodecService{
		cfg:  cfg,
		rand: rand.Reader,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadKey validates the configured key and returns a copy of it.
// The caller should Close the returned KeyMaterial when done.
func (c *EnvelopeCodecService) LoadKey() (*cryptoDomain.KeyMaterial, error) {
	return cryptoDomain.NewKeyMaterial(c.cfg.Key)
}

// cipher returns the cached AEAD, building it on first call.
func (c *EnvelopeCodecService) cipher() (AEAD, error) {
	c.once.Do(func() {
		km, err := c.LoadKey()
		if err != nil {
			c.initErr = err
			return
		}
		defer km.Close()

		c.aead, c.initErr = NewAESGCM(km.Bytes())
	})
	return c.aead, c.initErr
}

// Encrypt seals plaintext into envelope text.
//
// Returns ErrMissingKey or ErrInvalidKeyLength for key problems and
// ErrEncryptionFailed for anything else, including plaintext that is not valid
// UTF-8. Errors never contain the plaintext.
func (c *EnvelopeCodecService) Encrypt(plaintext string) (string, error) {
	aead, err := c.cipher()
	if err != nil {
		return "", keyError(err, cryptoDomain.ErrEncryptionFailed)
	}

	if !utf8.ValidString(plaintext) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", cryptoDomain.ErrEncryptionFailed)
	}

	salt := make([]byte, cryptoDomain.SaltSize)
	if _, err := io.ReadFull(c.rand, salt); err != nil {
		return "", fmt.Errorf("%w: failed to generate salt: %v", cryptoDomain.ErrEncryptionFailed, err)
	}

	nonce := make([]byte, cryptoDomain.NonceSize)
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return "", fmt.Errorf("%w: failed to generate nonce: %v", cryptoDomain.ErrEncryptionFailed, err)
	}

	data := []byte(plaintext)
	defer cryptoDomain.Zero(data)

	ciphertext, tag, err := aead.Seal(nonce, data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", cryptoDomain.ErrEncryptionFailed, err)
	}

	envelope := &cryptoDomain.Envelope{
		Salt:       salt,
		Nonce:      nonce,
		Tag:        tag,
		Ciphertext: ciphertext,
	}
	if err := envelope.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", cryptoDomain.ErrEncryptionFailed, err)
	}
	return envelope.Encode(), nil
}

// Decrypt opens envelope text.
//
// Returns ErrMissingKey or ErrInvalidKeyLength for key problems,
// ErrMalformedEnvelope when the text cannot hold the fixed fields and
// ErrDecryptionFailed when authentication fails or the plaintext is not UTF-8.
// No plaintext, partial or otherwise, is returned alongside an error.
func (c *EnvelopeCodecService) Decrypt(envelopeText string) (string, error) {
	aead, err := c.cipher()
	if err != nil {
		return "", keyError(err, cryptoDomain.ErrDecryptionFailed)
	}

	envelope, err := cryptoDomain.ParseEnvelope(envelopeText)
	if err != nil {
		return "", err
	}

	// The salt is carried for layout compatibility only; it takes no part in decryption.
	plaintext, err := aead.Open(envelope.Nonce, envelope.Ciphertext, envelope.Tag)
	if err != nil {
		return "", cryptoDomain.ErrDecryptionFailed
	}
	defer cryptoDomain.Zero(plaintext)

	if !utf8.Valid(plaintext) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", cryptoDomain.ErrDecryptionFailed)
	}

	return string(plaintext), nil
}

// Hash returns the lowercase hex SHA-256 digest of text.
func (c *EnvelopeCodecService) Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// GenerateKey returns the hex encoding of 16 random bytes. The 32-character result
// is valid key text for KeyConfig.
func (c *EnvelopeCodecService) GenerateKey() (string, error) {
	b := make([]byte, cryptoDomain.GeneratedKeyBytes)
	if _, err := io.ReadFull(c.rand, b); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	defer cryptoDomain.Zero(b)

	return hex.EncodeToString(b), nil
}

// keyError passes key validation errors through unchanged and folds any other
// cipher construction failure into fallback.
func keyError(err, fallback error) error {
	if errors.Is(err, cryptoDomain.ErrMissingKey) || errors.Is(err, cryptoDomain.ErrInvalidKeyLength) {
		return err
	}
	return fmt.Errorf("%w: %v", fallback, err)
}
