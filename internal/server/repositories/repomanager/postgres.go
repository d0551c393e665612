package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/server/migrations"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/accounts"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories
// and runs the embedded goose migrations.
type PostgresRepositoryManager struct {
	db *sql.DB
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// OpenPostgres opens a pgx-backed *sql.DB and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

// NewPostgresRepositoryManager wraps an open database handle.
func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db}
}

func (m *PostgresRepositoryManager) Accounts() accounts.Repository {
	return accounts.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) WithinTx(ctx context.Context, fn func(ctx context.Context, repo accounts.Repository) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, accounts.NewPostgresRepository(tx))
	})
}

// RunMigrations points goose at the embedded migrations and applies them.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

func (m *PostgresRepositoryManager) Close(context.Context) error {
	return m.db.Close()
}
