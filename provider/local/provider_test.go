package local_test

import (
	"context"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/provider/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProvider(t *testing.T) *local.Provider {
	t.Helper()

	// a named in-memory database keeps each test isolated while sharing
	// the connection pool
	db, err := accounts.OpenSQLite("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	local.RegisterModels(db)
	require.NoError(t, local.CreateSchema(context.Background(), db))

	tokens := accounts.NewTokenService([]byte("test-signing-key"), 24, "go-accounts", nil, nil)
	return local.New(db, tokens)
}

func TestLocalProviderCreateAndAuthenticate(t *testing.T) {
	provider := setupProvider(t)
	ctx := context.Background()

	ref, err := provider.Create(ctx, "user@example.com", "secret-password")
	require.NoError(t, err)
	require.NotEmpty(t, ref)

	session, err := provider.Authenticate(ctx, "user@example.com", "secret-password")
	require.NoError(t, err)
	assert.Equal(t, ref, session.CredentialRef)
	assert.NotEmpty(t, session.SessionToken)
}

func TestLocalProviderCreateDuplicate(t *testing.T) {
	provider := setupProvider(t)
	ctx := context.Background()

	_, err := provider.Create(ctx, "user@example.com", "secret-password")
	require.NoError(t, err)

	_, err = provider.Create(ctx, "user@example.com", "another-password")
	require.Error(t, err)
	assert.True(t, accounts.IsCredentialTaken(err))
}

func TestLocalProviderCreateNormalizesEmail(t *testing.T) {
	provider := setupProvider(t)
	ctx := context.Background()

	_, err := provider.Create(ctx, "  User@Example.COM ", "secret-password")
	require.NoError(t, err)

	_, err = provider.Authenticate(ctx, "user@example.com", "secret-password")
	assert.NoError(t, err)
}

func TestLocalProviderAuthenticateUnknownEmail(t *testing.T) {
	provider := setupProvider(t)

	_, err := provider.Authenticate(context.Background(), "ghost@example.com", "whatever")
	require.Error(t, err)
	assert.True(t, accounts.IsCredentialNotFound(err))
}

func TestLocalProviderAuthenticateWrongPassword(t *testing.T) {
	provider := setupProvider(t)
	ctx := context.Background()

	_, err := provider.Create(ctx, "user@example.com", "secret-password")
	require.NoError(t, err)

	_, err = provider.Authenticate(ctx, "user@example.com", "wrong-password")
	require.Error(t, err)
	assert.True(t, accounts.IsAuthenticationError(err))
}

func TestLocalProviderSessionTokenRoundtrip(t *testing.T) {
	provider := setupProvider(t)
	ctx := context.Background()

	ref, err := provider.Create(ctx, "user@example.com", "secret-password")
	require.NoError(t, err)

	session, err := provider.Authenticate(ctx, "user@example.com", "secret-password")
	require.NoError(t, err)

	tokens := accounts.NewTokenService([]byte("test-signing-key"), 24, "go-accounts", nil, nil)
	claims, err := tokens.Validate(session.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, ref, claims.Subject)
	assert.Equal(t, "user@example.com", claims.Email)
}
