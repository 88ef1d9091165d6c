package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	credentialsDomain "github.com/allisson/tokenvault/internal/credentials/domain"
	cryptoService "github.com/allisson/tokenvault/internal/crypto/service"
	"github.com/allisson/tokenvault/internal/database"
	apperrors "github.com/allisson/tokenvault/internal/errors"
	"github.com/allisson/tokenvault/internal/validation"
)

// MaxListLimit caps the page size accepted by List.
const MaxListLimit = 100

type credentialUseCase struct {
	txManager database.TxManager
	repo      CredentialRepository
	codec     cryptoService.EnvelopeCodec
	logger    *slog.Logger
}

// NewCredentialUseCase creates a CredentialUseCase.
func NewCredentialUseCase(
	txManager database.TxManager,
	repo CredentialRepository,
	codec cryptoService.EnvelopeCodec,
	logger *slog.Logger,
) CredentialUseCase {
	return &credentialUseCase{
		txManager: txManager,
		repo:      repo,
		codec:     codec,
		logger:    logger,
	}
}

func (c *credentialUseCase) Store(
	ctx context.Context,
	email string,
	token *oauth2.Token,
) (*credentialsDomain.Credential, error) {
	email = credentialsDomain.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := credentialsDomain.ValidateToken(token); err != nil {
		return nil, err
	}

	plaintext, err := credentialsDomain.EncodeToken(token)
	if err != nil {
		return nil, err
	}

	envelope, err := c.codec.Encrypt(plaintext)
	if err != nil {
		c.logger.Error("failed to seal credential",
			slog.String("email_hash", c.codec.Hash(email)),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("%w: %w", credentialsDomain.ErrCredentialUnavailable, err)
	}

	var stored *credentialsDomain.Credential
	created := false
	err = c.txManager.WithTx(ctx, func(txCtx context.Context) error {
		now := time.Now().UTC()

		existing, err := c.repo.GetByEmail(txCtx, email)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		if existing == nil {
			stored = &credentialsDomain.Credential{
				ID:             uuid.Must(uuid.NewV7()),
				Email:          email,
				EncryptedToken: envelope,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			created = true
			return c.repo.Create(txCtx, stored)
		}

		existing.EncryptedToken = envelope
		existing.UpdatedAt = now
		stored = existing
		return c.repo.Update(txCtx, stored)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("credential stored",
		slog.String("email_hash", c.codec.Hash(email)),
		slog.Bool("created", created),
	)

	return metadata(stored), nil
}

func (c *credentialUseCase) Get(ctx context.Context, email string) (*credentialsDomain.Credential, error) {
	email = credentialsDomain.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}

	credential, err := c.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, credentialsDomain.ErrCredentialNotFound
		}
		return nil, err
	}

	plaintext, err := c.codec.Decrypt(credential.EncryptedToken)
	if err != nil {
		c.logger.Warn("failed to open credential",
			slog.String("email_hash", c.codec.Hash(email)),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("%w: %w", credentialsDomain.ErrCredentialUnavailable, err)
	}

	token, err := credentialsDomain.DecodeToken(plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", credentialsDomain.ErrCredentialUnavailable, err)
	}

	credential.Token = token
	return credential, nil
}

func (c *credentialUseCase) Delete(ctx context.Context, email string) error {
	email = credentialsDomain.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}

	if err := c.repo.Delete(ctx, email); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return credentialsDomain.ErrCredentialNotFound
		}
		return err
	}

	c.logger.Info("credential deleted", slog.String("email_hash", c.codec.Hash(email)))
	return nil
}

func (c *credentialUseCase) List(
	ctx context.Context,
	offset, limit int,
) ([]*credentialsDomain.Credential, error) {
	if offset < 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "offset must be a non-negative integer")
	}
	if limit < 1 || limit > MaxListLimit {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "limit must be between 1 and %d", MaxListLimit)
	}
	return c.repo.List(ctx, offset, limit)
}

// metadata copies credential without its envelope or token.
func metadata(credential *credentialsDomain.Credential) *credentialsDomain.Credential {
	return &credentialsDomain.Credential{
		ID:        credential.ID,
		Email:     credential.Email,
		CreatedAt: credential.CreatedAt,
		UpdatedAt: credential.UpdatedAt,
	}
}
