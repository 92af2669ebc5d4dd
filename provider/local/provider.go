// Package local is a CredentialProvider backed by the module's own
// database. It stands in for an external identity service in development
// and single-node deployments; the lifecycle handlers only ever see the
// accounts.CredentialProvider interface.
package local

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Credential is the provider-side identity record. It is deliberately
// separate from the account record: the two stores fail independently.
type Credential struct {
	bun.BaseModel `bun:"table:credentials,alias:crd"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Provider implements accounts.CredentialProvider on a bun database.
type Provider struct {
	db     bun.IDB
	tokens accounts.SessionTokenService
	logger accounts.Logger
}

// Option customizes provider construction.
type Option func(*Provider)

// WithLogger overrides the default logger.
func WithLogger(logger accounts.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New returns a local credential provider minting sessions with the
// given token service.
func New(db bun.IDB, tokens accounts.SessionTokenService, opts ...Option) *Provider {
	p := &Provider{
		db:     db,
		tokens: tokens,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

var _ accounts.CredentialProvider = (*Provider)(nil)

// Create registers a new identity and returns its opaque reference.
func (p *Provider) Create(ctx context.Context, email, password string) (string, error) {
	hash, err := accounts.HashPassword(password)
	if err != nil {
		return "", err
	}

	record := &Credential{
		ID:           uuid.New(),
		Email:        accounts.NormalizeEmail(email),
		PasswordHash: hash,
	}

	if _, err := p.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if accounts.IsDuplicateKeyError(err) {
			return "", accounts.ErrCredentialTaken
		}
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to persist credential")
	}

	return record.ID.String(), nil
}

// Authenticate verifies the password and mints a bearer session token.
func (p *Provider) Authenticate(ctx context.Context, email, password string) (*accounts.ProviderSession, error) {
	record := &Credential{}
	err := p.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", accounts.NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, accounts.ErrCredentialNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up credential")
	}

	if err := accounts.ComparePasswordAndHash(password, record.PasswordHash); err != nil {
		if accounts.IsAuthenticationError(err) {
			return nil, accounts.ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to compare credential hash")
	}

	token, err := p.tokens.Generate(record.ID.String(), record.Email)
	if err != nil {
		return nil, err
	}

	return &accounts.ProviderSession{
		CredentialRef: record.ID.String(),
		SessionToken:  token,
	}, nil
}

// RegisterModels registers the provider models with bun.
func RegisterModels(db *bun.DB) {
	db.RegisterModel((*Credential)(nil))
}

// CreateSchema creates the credentials table if it does not exist.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*Credential)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create credentials schema")
	}

	return nil
}
