package accounts_test

import (
	"context"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func setupRepo(t *testing.T) (accounts.RepositoryManager, *bun.DB) {
	t.Helper()

	db, err := accounts.OpenSQLite("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, accounts.CreateSchema(context.Background(), db))

	manager := accounts.NewRepositoryManager(db)
	manager.MustValidate()
	return manager, db
}

func pendingAccount(email, token string, expiresAt time.Time) *accounts.Account {
	account := &accounts.Account{Email: email}
	account.SetVerificationToken(token, expiresAt)
	return account
}

func TestAccountsRepoRegisterAndGetByEmail(t *testing.T) {
	manager, _ := setupRepo(t)
	repo := manager.Accounts()
	ctx := context.Background()

	created, err := repo.Register(ctx, &accounts.Account{
		Email:       "  User@Example.COM ",
		DisplayName: "Test User",
	})
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", created.Email)
	assert.NotEmpty(t, created.ID)

	found, err := repo.GetByEmail(ctx, "USER@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.GetByEmail(ctx, "ghost@example.com")
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestAccountsRepoDuplicateEmail(t *testing.T) {
	manager, _ := setupRepo(t)
	repo := manager.Accounts()
	ctx := context.Background()

	_, err := repo.Register(ctx, &accounts.Account{Email: "user@example.com"})
	require.NoError(t, err)

	_, err = repo.Register(ctx, &accounts.Account{Email: "user@example.com"})
	require.Error(t, err)
	assert.True(t, accounts.IsDuplicateKeyError(err))
}

func TestAccountsRepoGetByToken(t *testing.T) {
	manager, _ := setupRepo(t)
	repo := manager.Accounts()
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := repo.Register(ctx, pendingAccount("user@example.com", "tok-live", now.Add(time.Hour)))
	require.NoError(t, err)

	found, err := repo.GetByToken(ctx, "tok-live")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", found.Email)

	_, err = repo.GetByToken(ctx, "tok-unknown")
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestAccountsRepoConsumeVerificationToken(t *testing.T) {
	manager, _ := setupRepo(t)
	repo := manager.Accounts()
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := repo.Register(ctx, pendingAccount("user@example.com", "tok-live", now.Add(time.Hour)))
	require.NoError(t, err)

	verified, err := repo.ConsumeVerificationToken(ctx, "tok-live", now)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	assert.Nil(t, verified.VerificationToken)
	require.NotNil(t, verified.VerifiedAt)

	// the token row is gone; a second consume loses
	_, err = repo.ConsumeVerificationToken(ctx, "tok-live", now)
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestAccountsRepoConsumeExpiredToken(t *testing.T) {
	manager, _ := setupRepo(t)
	repo := manager.Accounts()
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := repo.Register(ctx, pendingAccount("user@example.com", "tok-stale", now.Add(-time.Hour)))
	require.NoError(t, err)

	_, err = repo.ConsumeVerificationToken(ctx, "tok-stale", now)
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))

	// the row itself is untouched
	found, err := repo.GetByToken(ctx, "tok-stale")
	require.NoError(t, err)
	assert.False(t, found.IsVerified)
}

func TestAccountsRepoMarkVerified(t *testing.T) {
	manager, _ := setupRepo(t)
	repo := manager.Accounts()
	ctx := context.Background()

	now := time.Now().UTC()
	created, err := repo.Register(ctx, pendingAccount("user@example.com", "tok-live", now.Add(time.Hour)))
	require.NoError(t, err)

	verified, err := repo.MarkVerified(ctx, created.ID, now)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	assert.Nil(t, verified.VerificationToken)
}

func TestAccountsRepoRunInTx(t *testing.T) {
	manager, _ := setupRepo(t)
	ctx := context.Background()

	err := manager.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := manager.Accounts().RegisterTx(ctx, tx, &accounts.Account{Email: "user@example.com"})
		return err
	})
	require.NoError(t, err)

	found, err := manager.Accounts().GetByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", found.Email)
}
