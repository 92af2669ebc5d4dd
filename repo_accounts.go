package accounts

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ConsumeVerificationTokenSQL clears the token only while it is still
// present and unexpired; concurrent verification attempts race here and
// exactly one observes a row.
var ConsumeVerificationTokenSQL = `UPDATE "accounts" AS "acc"
SET
	"is_verified" = TRUE,
	"verified_at" = ?,
	"verification_token" = NULL,
	"verification_token_expires_at" = NULL
WHERE
	"acc"."deleted_at" IS NULL
AND "acc"."is_verified" = FALSE
AND "acc"."verification_token" = ?
AND "acc"."verification_token_expires_at" > ?
RETURNING *;`

var MarkVerifiedSQL = `UPDATE "accounts" AS "acc"
SET
	"is_verified" = TRUE,
	"verified_at" = ?,
	"verification_token" = NULL,
	"verification_token_expires_at" = NULL
WHERE
	"acc"."deleted_at" IS NULL
AND (
	"acc"."id" = ?
) RETURNING *;`

// Accounts is the account record store
type Accounts interface {
	repository.Repository[*Account]

	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	GetByToken(ctx context.Context, token string) (*Account, error)
	GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*Account, error)

	Register(ctx context.Context, record *Account) (*Account, error)
	RegisterTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error)
	Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error)

	ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*Account, error)
	ConsumeVerificationTokenTx(ctx context.Context, tx bun.IDB, token string, now time.Time) (*Account, error)
	MarkVerified(ctx context.Context, id uuid.UUID, now time.Time) (*Account, error)
	MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, now time.Time) (*Account, error)
}

type accountsRepo struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accountsRepo)(nil)
	_ AccountStore                    = (*accountsRepo)(nil)
	_ repository.Repository[*Account] = (*accountsRepo)(nil)
)

// NewAccountsRepository builds the bun-backed record store
func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accountsRepo{
		Repository: repo,
		db:         db,
	}
}

func (a *accountsRepo) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *accountsRepo) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": NormalizeEmail(email),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accountsRepo) GetByToken(ctx context.Context, token string) (*Account, error) {
	return a.GetByTokenTx(ctx, a.db, token)
}

func (a *accountsRepo) GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.verification_token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			// metadata omits the token value so logs cannot leak it
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (a *accountsRepo) Register(ctx context.Context, record *Account) (*Account, error) {
	return a.RegisterTx(ctx, a.db, record)
}

func (a *accountsRepo) RegisterTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	return a.CreateTx(ctx, tx, record)
}

func (a *accountsRepo) Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *accountsRepo) CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	prepareAccountDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *accountsRepo) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*Account, error) {
	return a.ConsumeVerificationTokenTx(ctx, a.db, token, now)
}

func (a *accountsRepo) ConsumeVerificationTokenTx(ctx context.Context, tx bun.IDB, token string, now time.Time) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, tx, ConsumeVerificationTokenSQL, now, token, now)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound()
	}

	return res[0], nil
}

func (a *accountsRepo) MarkVerified(ctx context.Context, id uuid.UUID, now time.Time) (*Account, error) {
	return a.MarkVerifiedTx(ctx, a.db, id, now)
}

func (a *accountsRepo) MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, now time.Time) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, tx, MarkVerifiedSQL, now, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return res[0], nil
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
