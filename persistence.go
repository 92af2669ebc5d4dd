package accounts

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// OpenSQLite opens a sqlite-backed bun.DB with the account models registered.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open sqlite database")
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	RegisterModels(db)

	return db, nil
}

// RegisterModels registers the account models with bun.
func RegisterModels(db *bun.DB) {
	db.RegisterModel((*Account)(nil))
}

// CreateSchema creates the accounts table if it does not exist. Intended
// for development and tests; production deployments run migrations.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*Account)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create accounts schema")
	}

	return nil
}
