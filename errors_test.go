package accounts_test

import (
	"errors"
	"fmt"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name     string
		err      *goerrors.Error
		category goerrors.Category
		textCode string
	}{
		{"missing input", accounts.ErrMissingInput, goerrors.CategoryValidation, accounts.TextCodeMissingInput},
		{"duplicate account", accounts.ErrDuplicateAccount, goerrors.CategoryConflict, accounts.TextCodeDuplicateAccount},
		{"provider failure", accounts.ErrProviderFailure, goerrors.CategoryInternal, accounts.TextCodeProviderFailure},
		{"token invalid", accounts.ErrTokenInvalid, goerrors.CategoryAuth, accounts.TextCodeTokenInvalid},
		{"unverified", accounts.ErrAccountUnverified, goerrors.CategoryAuth, accounts.TextCodeUnverified},
		{"invalid credentials", accounts.ErrInvalidCredentials, goerrors.CategoryAuth, accounts.TextCodeInvalidCreds},
		{"credential taken", accounts.ErrCredentialTaken, goerrors.CategoryConflict, accounts.TextCodeCredentialTaken},
		{"credential not found", accounts.ErrCredentialNotFound, goerrors.CategoryNotFound, accounts.TextCodeCredentialNotFound},
		{"empty password", accounts.ErrNoEmptyPassword, goerrors.CategoryValidation, accounts.TextCodeEmptyPassword},
		{"session expired", accounts.ErrSessionExpired, goerrors.CategoryAuth, accounts.TextCodeSessionExpired},
		{"session malformed", accounts.ErrSessionMalformed, goerrors.CategoryAuth, accounts.TextCodeSessionMalformed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.category, tc.err.Category)
			assert.Equal(t, tc.textCode, tc.err.TextCode)
			assert.NotEmpty(t, tc.err.Message)
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, accounts.IsDuplicateAccount(accounts.ErrDuplicateAccount))
	assert.True(t, accounts.IsProviderFailure(accounts.ErrProviderFailure))
	assert.True(t, accounts.IsTokenInvalid(accounts.ErrTokenInvalid))
	assert.True(t, accounts.IsUnverified(accounts.ErrAccountUnverified))
	assert.True(t, accounts.IsAuthenticationError(accounts.ErrInvalidCredentials))
	assert.True(t, accounts.IsCredentialTaken(accounts.ErrCredentialTaken))
	assert.True(t, accounts.IsCredentialNotFound(accounts.ErrCredentialNotFound))

	assert.False(t, accounts.IsDuplicateAccount(accounts.ErrTokenInvalid))
	assert.False(t, accounts.IsTokenInvalid(nil))
	assert.False(t, accounts.IsAuthenticationError(errors.New("plain error")))
}

func TestIsValidationErrorMatchesCategory(t *testing.T) {
	assert.True(t, accounts.IsValidationError(accounts.ErrMissingInput))
	assert.True(t, accounts.IsValidationError(accounts.ErrNoEmptyPassword))
	assert.False(t, accounts.IsValidationError(accounts.ErrDuplicateAccount))
	assert.False(t, accounts.IsValidationError(nil))
}

func TestPredicatesMatchWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", accounts.ErrDuplicateAccount)
	assert.True(t, accounts.IsDuplicateAccount(wrapped))

	deep := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", accounts.ErrTokenInvalid))
	assert.True(t, accounts.IsTokenInvalid(deep))
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.True(t, accounts.IsDuplicateKeyError(errors.New("UNIQUE constraint failed: accounts.email")))
	assert.True(t, accounts.IsDuplicateKeyError(errors.New(`duplicate key value violates unique constraint "accounts_email_key"`)))
	assert.False(t, accounts.IsDuplicateKeyError(errors.New("connection refused")))
	assert.False(t, accounts.IsDuplicateKeyError(nil))
}
