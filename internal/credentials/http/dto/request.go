// Package dto provides data transfer objects for credential HTTP requests and responses.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"
	"golang.org/x/oauth2"

	customValidation "github.com/allisson/tokenvault/internal/validation"
)

// StoreCredentialRequest is the OAuth token to seal for an account.
// Field names follow the JSON form of oauth2.Token.
type StoreCredentialRequest struct {
	AccessToken  string     `json:"access_token"`
	TokenType    string     `json:"token_type,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	Expiry       *time.Time `json:"expiry,omitempty"`
	// ExpiresIn is accepted for tokens copied from a raw token endpoint response.
	ExpiresIn int64 `json:"expires_in,omitempty"`
}

// Validate checks if the store credential request is valid.
func (r *StoreCredentialRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.AccessToken, validation.Required, customValidation.NotBlank),
		validation.Field(&r.TokenType, customValidation.NoWhitespace, validation.Length(0, 64)),
		validation.Field(&r.RefreshToken, customValidation.NoWhitespace),
		validation.Field(&r.ExpiresIn, validation.Min(int64(0))),
	)
}

// ToToken converts the request into an oauth2.Token. An explicit Expiry wins over ExpiresIn.
func (r *StoreCredentialRequest) ToToken(now time.Time) *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  r.AccessToken,
		TokenType:    r.TokenType,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    r.ExpiresIn,
	}
	switch {
	case r.Expiry != nil:
		token.Expiry = r.Expiry.UTC()
	case r.ExpiresIn > 0:
		token.Expiry = now.Add(time.Duration(r.ExpiresIn) * time.Second).UTC()
	}
	return token
}
