package accounts_test

import (
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ACCOUNTS_SIGNING_KEY", "test-signing-key")

	cfg, err := accounts.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test-signing-key", cfg.GetSigningKey())
	assert.Equal(t, 24, cfg.GetTokenExpiration())
	assert.Equal(t, "go-accounts", cfg.GetIssuer())
	assert.Equal(t, 24*time.Hour, cfg.GetVerificationTokenTTL())
	assert.Equal(t, "http://localhost:3000/verify", cfg.GetVerificationBaseLink())
	assert.NotEmpty(t, cfg.GetDatabaseDSN())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ACCOUNTS_SIGNING_KEY", "test-signing-key")
	t.Setenv("ACCOUNTS_TOKEN_EXPIRATION", "48")
	t.Setenv("ACCOUNTS_ISSUER", "my-service")
	t.Setenv("ACCOUNTS_AUDIENCE", "web,mobile")
	t.Setenv("ACCOUNTS_VERIFICATION_TTL", "1h")

	cfg, err := accounts.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 48, cfg.GetTokenExpiration())
	assert.Equal(t, "my-service", cfg.GetIssuer())
	assert.Equal(t, []string{"web", "mobile"}, cfg.GetAudience())
	assert.Equal(t, time.Hour, cfg.GetVerificationTokenTTL())
}

func TestLoadConfigMissingSigningKey(t *testing.T) {
	t.Setenv("ACCOUNTS_SIGNING_KEY", "")

	_, err := accounts.LoadConfig()
	assert.Error(t, err)
}
