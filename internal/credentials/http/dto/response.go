package dto

import (
	"time"

	credentialsDomain "github.com/allisson/tokenvault/internal/credentials/domain"
)

// TokenResponse is the opened OAuth token. Only GET responses carry it.
type TokenResponse struct {
	AccessToken  string     `json:"access_token"`
	TokenType    string     `json:"token_type,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	Expiry       *time.Time `json:"expiry,omitempty"`
}

// CredentialResponse represents a credential in API responses.
type CredentialResponse struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Token     *TokenResponse `json:"token,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ListCredentialsResponse represents a paginated list of credentials.
type ListCredentialsResponse struct {
	Data []CredentialResponse `json:"data"`
}

// MapCredentialToResponse converts credential metadata to a response. The token is never included.
func MapCredentialToResponse(credential *credentialsDomain.Credential) CredentialResponse {
	return CredentialResponse{
		ID:        credential.ID.String(),
		Email:     credential.Email,
		CreatedAt: credential.CreatedAt,
		UpdatedAt: credential.UpdatedAt,
	}
}

// MapCredentialToGetResponse converts an opened credential to a response including its token.
func MapCredentialToGetResponse(credential *credentialsDomain.Credential) CredentialResponse {
	response := MapCredentialToResponse(credential)
	if token := credential.Token; token != nil {
		response.Token = &TokenResponse{
			AccessToken:  token.AccessToken,
			TokenType:    token.TokenType,
			RefreshToken: token.RefreshToken,
		}
		if !token.Expiry.IsZero() {
			expiry := token.Expiry
			response.Token.Expiry = &expiry
		}
	}
	return response
}

// MapCredentialsToListResponse converts a slice of credentials to a list response.
func MapCredentialsToListResponse(credentials []*credentialsDomain.Credential) ListCredentialsResponse {
	data := make([]CredentialResponse, 0, len(credentials))
	for _, credential := range credentials {
		data = append(data, MapCredentialToResponse(credential))
	}
	return ListCredentialsResponse{Data: data}
}
