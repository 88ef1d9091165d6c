package domain

import (
	"github.com/allisson/tokenvault/internal/errors"
)

// Credential-specific error definitions.
var (
	// ErrCredentialNotFound indicates no credential is stored for the account email.
	ErrCredentialNotFound = errors.Wrap(errors.ErrNotFound, "credential not found")

	// ErrCredentialUnavailable indicates a stored credential exists but cannot be opened,
	// either because the key is misconfigured or the envelope does not authenticate.
	// The codec error stays in the chain.
	ErrCredentialUnavailable = errors.Wrap(errors.ErrUnavailable, "credential unavailable")

	// ErrInvalidToken indicates the OAuth token to store is missing required fields.
	ErrInvalidToken = errors.Wrap(errors.ErrInvalidInput, "invalid oauth token")
)
