package accounts

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/goliatone/go-errors"
)

// EnvConfig is a Config implementation populated from environment variables.
type EnvConfig struct {
	SigningKey           string        `env:"ACCOUNTS_SIGNING_KEY,required,notEmpty"`
	TokenExpiration      int           `env:"ACCOUNTS_TOKEN_EXPIRATION" envDefault:"24"`
	Issuer               string        `env:"ACCOUNTS_ISSUER" envDefault:"go-accounts"`
	Audience             []string      `env:"ACCOUNTS_AUDIENCE" envSeparator:","`
	VerificationTokenTTL time.Duration `env:"ACCOUNTS_VERIFICATION_TTL" envDefault:"24h"`
	VerificationBaseLink string        `env:"ACCOUNTS_VERIFICATION_BASE_LINK" envDefault:"http://localhost:3000/verify"`
	DatabaseDSN          string        `env:"ACCOUNTS_DATABASE_DSN" envDefault:"file::memory:?cache=shared"`
}

var _ Config = (*EnvConfig)(nil)

// LoadConfig parses environment variables into an EnvConfig.
func LoadConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to parse accounts config")
	}
	return cfg, nil
}

func (c *EnvConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *EnvConfig) GetTokenExpiration() int {
	return c.TokenExpiration
}

func (c *EnvConfig) GetIssuer() string {
	return c.Issuer
}

func (c *EnvConfig) GetAudience() []string {
	return c.Audience
}

func (c *EnvConfig) GetVerificationTokenTTL() time.Duration {
	return c.VerificationTokenTTL
}

func (c *EnvConfig) GetVerificationBaseLink() string {
	return c.VerificationBaseLink
}

// GetDatabaseDSN returns the sqlite DSN used by the default record store.
func (c *EnvConfig) GetDatabaseDSN() string {
	return c.DatabaseDSN
}
