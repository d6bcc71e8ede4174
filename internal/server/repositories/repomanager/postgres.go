// Package repomanager provides the RepositoryManager implementations:
// PostgreSQL (repository constructors plus goose migrations) and an
// in-memory variant for DSN-less runs and tests.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/localbizsite/localbiz/internal/dbx"
	"github.com/localbizsite/localbiz/internal/server/migrations"
	"github.com/localbizsite/localbiz/internal/server/repositories/accounts"
	"github.com/localbizsite/localbiz/internal/server/repositories/businesses"
	"github.com/localbizsite/localbiz/internal/server/repositories/leads"
	"github.com/localbizsite/localbiz/internal/server/repositories/reviews"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct {
	db *sql.DB
}

// Accounts returns an accounts.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewPostgresRepository(db)
}

// Businesses returns a businesses.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Businesses(db dbx.DBTX) businesses.Repository {
	return businesses.NewPostgresRepository(db)
}

// Reviews returns a reviews.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Reviews(db dbx.DBTX) reviews.Repository {
	return reviews.NewPostgresRepository(db)
}

// Leads returns a leads.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Leads(db dbx.DBTX) leads.Repository {
	return leads.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Conn() dbx.DBTX { return m.db }

func (m *PostgresRepositoryManager) Close() error { return m.db.Close() }

// RunInTx runs fn in a database transaction.
func (m *PostgresRepositoryManager) RunInTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return dbx.WithTx(ctx, m.db, nil, fn)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the manager's database.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// OpenPostgres opens and pings a pgx-backed *sql.DB.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager(db *sql.DB) (RepositoryManager, error) {
	if db == nil {
		return nil, fmt.Errorf("nil database handle")
	}
	return &PostgresRepositoryManager{db: db}, nil
}
