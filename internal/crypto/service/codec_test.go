package service

import (
	"bytes"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	cryptoDomain "github.com/allisson/tokenvault/internal/crypto/domain"
	apperrors "github.com/allisson/tokenvault/internal/errors"
)

const testKey = "01234567890123456789012345678901"

// fixedEntropy returns salt bytes 0x00..0x3f followed by nonce bytes 0xa0..0xaf.
func fixedEntropy() []byte {
	b := make([]byte, 0, cryptoDomain.SaltSize+cryptoDomain.NonceSize)
	for i := 0; i < cryptoDomain.SaltSize; i++ {
		b = append(b, byte(i))
	}
	for i := 0; i < cryptoDomain.NonceSize; i++ {
		b = append(b, byte(0xa0+i))
	}
	return b
}

func newTestCodec(opts ...CodecOption) *EnvelopeCodecService {
	return NewEnvelopeCodec(cryptoDomain.KeyConfig{Key: testKey}, opts...)
}

// errReader always fails, standing in for an exhausted entropy source.
type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("entropy unavailable") }

func TestEnvelopeCodec_KnownAnswer(t *testing.T) {
	// Envelopes produced by the previous implementation with the same key, salt and
	// nonce. Existing stored credentials depend on these decoding byte-for-byte.
	tests := []struct {
		name      string
		plaintext string
		envelope  string
	}{
		{
			name:      "refresh token",
			plaintext: "refresh-token-xyz",
			envelope:  "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8gISIjJCUmJygpKissLS4vMDEyMzQ1Njc4OTo7PD0+P6ChoqOkpaanqKmqq6ytrq9qZpb+BlyXLFIJSuwnolYkswcpq/qwuElmmHsERlopgtU=",
		},
		{
			name:      "empty plaintext",
			plaintext: "",
			envelope:  "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8gISIjJCUmJygpKissLS4vMDEyMzQ1Njc4OTo7PD0+P6ChoqOkpaanqKmqq6ytrq+9y9LGK0GiAzHJjbf0HdSC",
		},
		{
			name:      "multi-byte characters",
			plaintext: "héllo ✓ 🔑",
			envelope:  "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8gISIjJCUmJygpKissLS4vMDEyMzQ1Njc4OTo7PD0+P6ChoqOkpaanqKmqq6ytrq/nHFhf3zcoRxq7WdwvTwfYqaHmtfOs8IaOZDCRt+PA",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := newTestCodec(WithRandReader(bytes.NewReader(fixedEntropy())))

			envelope, err := codec.Encrypt(tt.plaintext)
			require.NoError(t, err)
			assert.Equal(t, tt.envelope, envelope)

			plaintext, err := newTestCodec().Decrypt(tt.envelope)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, plaintext)
		})
	}
}

func TestEnvelopeCodec_Layout(t *testing.T) {
	entropy := fixedEntropy()
	codec := newTestCodec(WithRandReader(bytes.NewReader(entropy)))
	plaintext := "refresh-token-xyz"

	envelope, err := codec.Encrypt(plaintext)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(envelope)
	require.NoError(t, err)
	require.Len(t, raw, cryptoDomain.HeaderSize+len(plaintext))

	assert.Equal(t, entropy[:64], raw[0:64], "salt")
	assert.Equal(t, entropy[64:80], raw[64:80], "nonce")
	assert.NotEqual(t, []byte(plaintext), raw[96:], "ciphertext must not be plaintext")
}

func TestEnvelopeCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec()

	inputs := []string{
		"",
		"a",
		"refresh-token-xyz",
		`{"access_token":"ya29.a0","refresh_token":"1//0g","token_type":"Bearer","expiry":"2026-10-18T12:00:00Z"}`,
		"日本語のテキスト",
		"emoji 🔐🗝️",
		strings.Repeat("x", 64*1024),
	}

	for _, input := range inputs {
		envelope, err := codec.Encrypt(input)
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(envelope)
		require.NoError(t, err)
		assert.Len(t, raw, cryptoDomain.HeaderSize+len(input))

		plaintext, err := codec.Decrypt(envelope)
		require.NoError(t, err)
		assert.Equal(t, input, plaintext)
	}
}

func TestEnvelopeCodec_NonDeterministic(t *testing.T) {
	codec := newTestCodec()

	first, err := codec.Encrypt("refresh-token-xyz")
	require.NoError(t, err)
	second, err := codec.Encrypt("refresh-token-xyz")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	for _, envelope := range []string{first, second} {
		plaintext, err := codec.Decrypt(envelope)
		require.NoError(t, err)
		assert.Equal(t, "refresh-token-xyz", plaintext)
	}
}

func TestEnvelopeCodec_TamperDetection(t *testing.T) {
	codec := newTestCodec()

	envelope, err := codec.Encrypt("refresh-token-xyz")
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(envelope)
	require.NoError(t, err)

	t.Run("any flipped nonce, tag or ciphertext byte fails", func(t *testing.T) {
		for i := cryptoDomain.SaltSize; i < len(raw); i++ {
			tampered := bytes.Clone(raw)
			tampered[i] ^= 0x01

			plaintext, err := codec.Decrypt(base64.StdEncoding.EncodeToString(tampered))
			require.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed, "byte %d", i)
			assert.Empty(t, plaintext, "byte %d", i)
		}
	})

	t.Run("corrupted last ciphertext byte", func(t *testing.T) {
		tampered := bytes.Clone(raw)
		tampered[len(tampered)-1] ^= 0xff

		plaintext, err := codec.Decrypt(base64.StdEncoding.EncodeToString(tampered))
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Empty(t, plaintext)
	})

	t.Run("truncated ciphertext fails", func(t *testing.T) {
		plaintext, err := codec.Decrypt(base64.StdEncoding.EncodeToString(raw[:len(raw)-1]))
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		assert.Empty(t, plaintext)
	})

	t.Run("salt is not authenticated", func(t *testing.T) {
		// The salt takes no part in sealing, so changing it does not affect the result.
		tampered := bytes.Clone(raw)
		tampered[0] ^= 0x01

		plaintext, err := codec.Decrypt(base64.StdEncoding.EncodeToString(tampered))
		require.NoError(t, err)
		assert.Equal(t, "refresh-token-xyz", plaintext)
	})
}

func TestEnvelopeCodec_WrongKey(t *testing.T) {
	envelope, err := newTestCodec().Encrypt("refresh-token-xyz")
	require.NoError(t, err)

	other := NewEnvelopeCodec(cryptoDomain.KeyConfig{Key: "abcdefghijklmnopqrstuvwxyz012345"})
	plaintext, err := other.Decrypt(envelope)
	assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	assert.Empty(t, plaintext)
}

func TestEnvelopeCodec_Decrypt_Malformed(t *testing.T) {
	codec := newTestCodec()

	tests := []struct {
		name     string
		envelope string
	}{
		{name: "empty", envelope: ""},
		{name: "invalid base64", envelope: "%%%not-base64%%%"},
		{name: "95 bytes", envelope: base64.StdEncoding.EncodeToString(make([]byte, 95))},
		{name: "one byte", envelope: base64.StdEncoding.EncodeToString([]byte{0x01})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plaintext, err := codec.Decrypt(tt.envelope)
			assert.ErrorIs(t, err, cryptoDomain.ErrMalformedEnvelope)
			assert.Empty(t, plaintext)
		})
	}

	t.Run("exactly 96 zero bytes is well-formed but unauthentic", func(t *testing.T) {
		plaintext, err := codec.Decrypt(base64.StdEncoding.EncodeToString(make([]byte, 96)))
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		assert.Empty(t, plaintext)
	})
}

func TestEnvelopeCodec_InvalidUTF8(t *testing.T) {
	t.Run("encrypt rejects invalid UTF-8", func(t *testing.T) {
		envelope, err := newTestCodec().Encrypt("bad \xff\xfe bytes")
		assert.ErrorIs(t, err, cryptoDomain.ErrEncryptionFailed)
		assert.Empty(t, envelope)
		assert.NotContains(t, err.Error(), "bad")
	})

	t.Run("decrypt rejects authentic but invalid UTF-8", func(t *testing.T) {
		// Seal raw bytes directly, bypassing the codec's input check.
		aead, err := NewAESGCM([]byte(testKey))
		require.NoError(t, err)

		entropy := fixedEntropy()
		ciphertext, tag, err := aead.Seal(entropy[64:80], []byte{0xff, 0xfe, 0xfd})
		require.NoError(t, err)

		envelope := (&cryptoDomain.Envelope{
			Salt:       entropy[:64],
			Nonce:      entropy[64:80],
			Tag:        tag,
			Ciphertext: ciphertext,
		}).Encode()

		plaintext, err := newTestCodec().Decrypt(envelope)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		assert.Empty(t, plaintext)
	})
}

func TestEnvelopeCodec_KeyValidation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{name: "missing key", key: "", wantErr: cryptoDomain.ErrMissingKey},
		{name: "31 bytes", key: strings.Repeat("k", 31), wantErr: cryptoDomain.ErrInvalidKeyLength},
		{name: "33 bytes", key: strings.Repeat("k", 33), wantErr: cryptoDomain.ErrInvalidKeyLength},
		{name: "32 bytes", key: strings.Repeat("k", 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := NewEnvelopeCodec(cryptoDomain.KeyConfig{Key: tt.key})

			km, err := codec.LoadKey()
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, cryptoDomain.KeySize, len(km.Bytes()))

				envelope, err := codec.Encrypt("value")
				require.NoError(t, err)
				plaintext, err := codec.Decrypt(envelope)
				require.NoError(t, err)
				assert.Equal(t, "value", plaintext)
				return
			}

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, km)

			_, err = codec.Encrypt("value")
			assert.ErrorIs(t, err, tt.wantErr)

			// Key problems are reported before the envelope is even looked at.
			_, err = codec.Decrypt("garbage")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NotErrorIs(t, err, cryptoDomain.ErrMalformedEnvelope)
		})
	}
}

func TestEnvelopeCodec_EntropyFailure(t *testing.T) {
	codec := newTestCodec(WithRandReader(errReader{}))

	envelope, err := codec.Encrypt("refresh-token-xyz")
	assert.ErrorIs(t, err, cryptoDomain.ErrEncryptionFailed)
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	assert.Empty(t, envelope)
	assert.NotContains(t, err.Error(), "refresh-token-xyz")

	key, err := codec.GenerateKey()
	assert.Error(t, err)
	assert.Empty(t, key)
}

// shortTagAEAD returns an 8-byte tag, which cannot fill the envelope's tag field.
type shortTagAEAD struct{}

func (shortTagAEAD) Seal(_, plaintext []byte) ([]byte, []byte, error) {
	return append([]byte(nil), plaintext...), make([]byte, 8), nil
}

func (shortTagAEAD) Open(_, ciphertext, _ []byte) ([]byte, error) {
	return ciphertext, nil
}

func TestEnvelopeCodec_Encrypt_RejectsWrongFieldWidths(t *testing.T) {
	codec := newTestCodec()
	codec.once.Do(func() { codec.aead = shortTagAEAD{} })

	envelope, err := codec.Encrypt("refresh-token-xyz")
	assert.ErrorIs(t, err, cryptoDomain.ErrEncryptionFailed)
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	assert.NotContains(t, err.Error(), "refresh-token-xyz")
	assert.Empty(t, envelope)
}

func TestEnvelopeCodec_Hash(t *testing.T) {
	codec := NewEnvelopeCodec(cryptoDomain.KeyConfig{})

	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", codec.Hash("abc"))
	assert.Equal(t, "a52d159f262b2c6ddb724a61840befc36eb30c88877a4030b65cbe86298449c9", codec.Hash("abd"))
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", codec.Hash(""))
	assert.Equal(t, codec.Hash("abc"), codec.Hash("abc"))
	assert.NotEqual(t, codec.Hash("abc"), codec.Hash("abd"))
	assert.Len(t, codec.Hash("日本語"), 64)
}

func TestEnvelopeCodec_GenerateKey(t *testing.T) {
	codec := NewEnvelopeCodec(cryptoDomain.KeyConfig{})
	pattern := regexp.MustCompile(`^[0-9a-f]{32}$`)

	first, err := codec.GenerateKey()
	require.NoError(t, err)
	second, err := codec.GenerateKey()
	require.NoError(t, err)

	assert.Regexp(t, pattern, first)
	assert.Regexp(t, pattern, second)
	assert.NotEqual(t, first, second)

	t.Run("generated key is usable key material", func(t *testing.T) {
		keyed := NewEnvelopeCodec(cryptoDomain.KeyConfig{Key: first})

		envelope, err := keyed.Encrypt("refresh-token-xyz")
		require.NoError(t, err)
		plaintext, err := keyed.Decrypt(envelope)
		require.NoError(t, err)
		assert.Equal(t, "refresh-token-xyz", plaintext)
	})
}

func TestEnvelopeCodec_Concurrent(t *testing.T) {
	codec := newTestCodec()

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		value := strings.Repeat("v", i)
		g.Go(func() error {
			for j := 0; j < 20; j++ {
				envelope, err := codec.Encrypt(value)
				if err != nil {
					return err
				}
				plaintext, err := codec.Decrypt(envelope)
				if err != nil {
					return err
				}
				if plaintext != value {
					return errors.New("round trip mismatch")
				}
			}
			return nil
		})
	}

	assert.NoError(t, g.Wait())
}

func TestEnvelopeCodec_ImplementsInterface(t *testing.T) {
	assert.Implements(t, (*EnvelopeCodec)(nil), newTestCodec())
	assert.Implements(t, (*AEAD)(nil), &AESGCMCipher{})
}
