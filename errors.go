package accounts

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	// TextCodeMissingInput signals a missing required registration field
	TextCodeMissingInput = "MISSING_REQUIRED_FIELD"
	// TextCodeDuplicateAccount signals the email is already registered
	TextCodeDuplicateAccount = "DUPLICATE_ACCOUNT"
	// TextCodeProviderFailure signals an unexpected backend failure
	TextCodeProviderFailure = "PROVIDER_FAILURE"
	// TextCodeTokenInvalid covers absent, consumed, and expired verification tokens
	TextCodeTokenInvalid = "VERIFICATION_TOKEN_INVALID"
	// TextCodeUnverified signals the account exists but the email is unconfirmed
	TextCodeUnverified = "ACCOUNT_UNVERIFIED"
	// TextCodeInvalidCreds covers unknown accounts and wrong passwords alike
	TextCodeInvalidCreds = "INVALID_CREDENTIALS"
	// TextCodeInvalidPhone rejects profile phone numbers we cannot parse
	TextCodeInvalidPhone = "INVALID_PHONE_NUMBER"
	// TextCodeCredentialTaken is the provider-side duplicate signal
	TextCodeCredentialTaken = "CREDENTIAL_TAKEN"
	// TextCodeCredentialNotFound is the provider-side unknown identity signal
	TextCodeCredentialNotFound = "CREDENTIAL_NOT_FOUND"
	// TextCodeEmptyPassword rejects empty password hashing
	TextCodeEmptyPassword = "EMPTY_PASSWORD"
	// TextCodeSessionExpired signals an expired session token
	TextCodeSessionExpired = "SESSION_EXPIRED"
	// TextCodeSessionMalformed signals an undecodable session token
	TextCodeSessionMalformed = "SESSION_MALFORMED"
)

// ErrMissingInput is returned when email or password are empty
var ErrMissingInput = errors.New("email and password are required", errors.CategoryValidation).
	WithTextCode(TextCodeMissingInput).
	WithCode(errors.CodeBadRequest)

// ErrDuplicateAccount is returned when the email is already registered,
// in either backing system
var ErrDuplicateAccount = errors.New("an account with this email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateAccount).
	WithCode(errors.CodeConflict)

// ErrProviderFailure is the opaque error for unexpected credential provider
// or record store failures; detail is logged, never surfaced
var ErrProviderFailure = errors.New("account backend is unavailable", errors.CategoryInternal).
	WithTextCode(TextCodeProviderFailure).
	WithCode(errors.CodeInternal)

// ErrTokenInvalid is the single answer for missing, consumed, and expired
// verification tokens; the cases are deliberately not distinguished
var ErrTokenInvalid = errors.New("verification token is invalid or has expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrAccountUnverified is returned by the login gate for pending accounts;
// unlike ErrInvalidCredentials it carries an actionable message
var ErrAccountUnverified = errors.New("please verify your email address before signing in", errors.CategoryAuth).
	WithTextCode(TextCodeUnverified).
	WithCode(errors.CodeForbidden)

// ErrInvalidCredentials never reveals whether the email or the password was wrong
var ErrInvalidCredentials = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrCredentialTaken is reported by a CredentialProvider when the email
// already maps to an identity
var ErrCredentialTaken = errors.New("credential already in use", errors.CategoryConflict).
	WithTextCode(TextCodeCredentialTaken).
	WithCode(errors.CodeConflict)

// ErrCredentialNotFound is reported by a CredentialProvider for unknown identities
var ErrCredentialNotFound = errors.New("credential not found", errors.CategoryNotFound).
	WithTextCode(TextCodeCredentialNotFound).
	WithCode(errors.CodeNotFound)

// ErrNoEmptyPassword rejects hashing an empty password
var ErrNoEmptyPassword = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrSessionExpired signals an expired session token
var ErrSessionExpired = errors.New("session token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeSessionExpired).
	WithCode(errors.CodeUnauthorized)

// ErrSessionMalformed signals a session token we could not decode
var ErrSessionMalformed = errors.New("session token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeSessionMalformed).
	WithCode(errors.CodeUnauthorized)

// HasTextCode checks a rich error chain for the given text code
func HasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode == code
	}
	return false
}

// IsValidationError checks for missing or malformed registration input
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.Category == errors.CategoryValidation
	}
	return false
}

// IsDuplicateAccount checks for the email-already-registered outcome
func IsDuplicateAccount(err error) bool {
	return HasTextCode(err, TextCodeDuplicateAccount)
}

// IsProviderFailure checks for opaque backend failures
func IsProviderFailure(err error) bool {
	return HasTextCode(err, TextCodeProviderFailure)
}

// IsTokenInvalid checks for the undistinguished verification token failure
func IsTokenInvalid(err error) bool {
	return HasTextCode(err, TextCodeTokenInvalid)
}

// IsUnverified checks for the pending-account login rejection
func IsUnverified(err error) bool {
	return HasTextCode(err, TextCodeUnverified)
}

// IsAuthenticationError checks for the generic invalid credentials outcome
func IsAuthenticationError(err error) bool {
	return HasTextCode(err, TextCodeInvalidCreds)
}

// IsCredentialTaken checks for the provider-side duplicate identity signal
func IsCredentialTaken(err error) bool {
	return HasTextCode(err, TextCodeCredentialTaken)
}

// IsCredentialNotFound checks for the provider-side unknown identity signal
func IsCredentialNotFound(err error) bool {
	return HasTextCode(err, TextCodeCredentialNotFound)
}

// IsDuplicateKeyError will check for unique constraint violations
// reported by the record store driver
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
