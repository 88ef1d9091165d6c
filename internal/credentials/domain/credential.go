// Package domain defines stored OAuth credentials. Each account email owns at most one
// credential, whose token is kept only as an envelope produced by the crypto codec.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Credential is the stored OAuth token of one account.
type Credential struct {
	// ID is a UUIDv7 assigned on first store.
	ID uuid.UUID
	// Email identifies the account. Stored lowercased.
	Email string
	// EncryptedToken is the envelope text sealing the JSON-encoded token.
	EncryptedToken string
	// Token is the decrypted token, populated in memory only by Get.
	Token *oauth2.Token `json:"-"`
	// CreatedAt is the UTC timestamp of the first store.
	CreatedAt time.Time
	// UpdatedAt is the UTC timestamp of the latest store.
	UpdatedAt time.Time
}

// NormalizeEmail trims and lowercases an account email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateToken checks that token carries an access token.
func ValidateToken(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: token is required", ErrInvalidToken)
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return fmt.Errorf("%w: access_token is required", ErrInvalidToken)
	}
	return nil
}

// EncodeToken serializes token to the JSON plaintext that gets sealed.
func EncodeToken(token *oauth2.Token) (string, error) {
	data, err := json.Marshal(token)
	if err != nil {
		return "", fmt.Errorf("failed to encode token: %w", err)
	}
	return string(data), nil
}

// tokenFields are the JSON keys oauth2.Token decodes itself.
var tokenFields = map[string]bool{
	"access_token":  true,
	"token_type":    true,
	"refresh_token": true,
	"expiry":        true,
	"expires_in":    true,
}

// DecodeToken parses plaintext produced by EncodeToken.
//
// Rows written in the googleapis token format are accepted too: "expiry_date" in
// epoch milliseconds sets Expiry when "expiry" is absent, and keys oauth2.Token does
// not know (scope, id_token, expiry_date) stay reachable through Token.Extra.
func DecodeToken(plaintext string) (*oauth2.Token, error) {
	var token oauth2.Token
	if err := json.Unmarshal([]byte(plaintext), &token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	decoder := json.NewDecoder(strings.NewReader(plaintext))
	decoder.UseNumber()
	var fields map[string]any
	if err := decoder.Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	extra := make(map[string]any)
	for key, value := range fields {
		if !tokenFields[key] {
			extra[key] = value
		}
	}
	if len(extra) == 0 {
		return &token, nil
	}

	if token.Expiry.IsZero() {
		if ms, ok := extra["expiry_date"].(json.Number); ok {
			millis, err := ms.Int64()
			if err != nil {
				return nil, fmt.Errorf("failed to decode token: invalid expiry_date: %w", err)
			}
			token.Expiry = time.UnixMilli(millis).UTC()
		}
	}

	return token.WithExtra(extra), nil
}
