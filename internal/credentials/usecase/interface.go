// Package usecase stores and retrieves OAuth credentials, sealing each token with the
// envelope codec before it reaches a repository.
package usecase

import (
	"context"

	"golang.org/x/oauth2"

	credentialsDomain "github.com/allisson/tokenvault/internal/credentials/domain"
)

// CredentialRepository defines the interface for Credential persistence operations.
type CredentialRepository interface {
	Create(ctx context.Context, credential *credentialsDomain.Credential) error
	Update(ctx context.Context, credential *credentialsDomain.Credential) error
	GetByEmail(ctx context.Context, email string) (*credentialsDomain.Credential, error)
	Delete(ctx context.Context, email string) error
	List(ctx context.Context, offset, limit int) ([]*credentialsDomain.Credential, error)
}

// CredentialUseCase defines the interface for credential management business logic.
type CredentialUseCase interface {
	// Store seals token and inserts or replaces the credential for email.
	// The returned Credential carries metadata only.
	Store(ctx context.Context, email string, token *oauth2.Token) (*credentialsDomain.Credential, error)
	// Get loads and opens the credential for email. Token is populated on success.
	Get(ctx context.Context, email string) (*credentialsDomain.Credential, error)
	// Delete removes the credential for email.
	Delete(ctx context.Context, email string) error
	// List returns credential metadata ordered by email.
	List(ctx context.Context, offset, limit int) ([]*credentialsDomain.Credential, error)
}
