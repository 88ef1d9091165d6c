package kms

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	cryptoDomain "github.com/allisson/tokenvault/internal/crypto/domain"
)

// ErrMissingKeyURI is returned when a wrapped key is configured without a KMS key URI.
var ErrMissingKeyURI = errors.New("KMS_KEY_URI is required when ENCRYPTION_KEY_WRAPPED is set")

// WrapKey encrypts raw key text with the keeper at keyURI and returns the
// base64-encoded ciphertext suitable for ENCRYPTION_KEY_WRAPPED.
// The key is validated first so a wrapped value always unwraps to a usable key.
func WrapKey(ctx context.Context, kmsService KMSService, keyURI, key string) (string, error) {
	km, err := cryptoDomain.NewKeyMaterial(key)
	if err != nil {
		return "", err
	}
	defer km.Close()

	if keyURI == "" {
		return "", ErrMissingKeyURI
	}

	keeper, err := kmsService.OpenKeeper(ctx, keyURI)
	if err != nil {
		return "", err
	}
	defer closeKeeper(keeper)

	ciphertext, err := keeper.Encrypt(ctx, km.Bytes())
	if err != nil {
		return "", fmt.Errorf("failed to wrap encryption key: %w", err)
	}

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// UnwrapKey decrypts a wrapped key produced by WrapKey and returns the raw key text.
// The result is validated with the same rules as a plain ENCRYPTION_KEY.
func UnwrapKey(ctx context.Context, kmsService KMSService, keyURI, wrapped string) (string, error) {
	if keyURI == "" {
		return "", ErrMissingKeyURI
	}

	ciphertext, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return "", fmt.Errorf("failed to decode wrapped key: %w", err)
	}

	keeper, err := kmsService.OpenKeeper(ctx, keyURI)
	if err != nil {
		return "", err
	}
	defer closeKeeper(keeper)

	plaintext, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to unwrap encryption key: %w", err)
	}
	defer cryptoDomain.Zero(plaintext)

	km, err := cryptoDomain.NewKeyMaterial(string(plaintext))
	if err != nil {
		return "", err
	}
	defer km.Close()

	return string(km.Bytes()), nil
}

// ResolveKey returns the key text to use for the codec: the plain key when set,
// otherwise the unwrapped form of wrapped. Both empty yields an empty key, which the
// codec reports as ErrMissingKey on first use.
func ResolveKey(ctx context.Context, kmsService KMSService, cfg cryptoDomain.KeyConfig, keyURI, wrapped string) (cryptoDomain.KeyConfig, error) {
	if cfg.Key != "" || wrapped == "" {
		return cfg, nil
	}

	key, err := UnwrapKey(ctx, kmsService, keyURI, wrapped)
	if err != nil {
		return cryptoDomain.KeyConfig{}, err
	}
	return cryptoDomain.KeyConfig{Key: key}, nil
}

func closeKeeper(keeper Keeper) {
	if err := keeper.Close(); err != nil {
		slog.Default().Warn("failed to close KMS keeper", slog.Any("error", err))
	}
}
