// Package validation provides custom jellydator validation rules shared by request DTOs
// and use cases.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/tokenvault/internal/errors"
)

// MaxEmailLength matches the width of the credentials.email column.
const MaxEmailLength = 255

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Email validates email format using regex.
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return emailRegex.MatchString(s)
	},
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace.
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// AccountEmail is the full rule set for an account email used as a credential key.
var AccountEmail = []validation.Rule{
	validation.Required,
	NoWhitespace,
	validation.Length(3, MaxEmailLength),
	Email,
}

// ValidateEmail checks an account email and returns ErrInvalidInput on failure.
func ValidateEmail(email string) error {
	return WrapValidationError(validation.Validate(email, AccountEmail...))
}
