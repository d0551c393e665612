// Package repomanager selects and owns the credential store backend.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/shopauth/internal/server/repositories/accounts"
)

// RepositoryManager vends the accounts repository for one backend and owns
// its connection.
type RepositoryManager interface {
	// RunMigrations brings the schema (or indexes) up to date.
	RunMigrations(ctx context.Context) error
	Accounts() accounts.Repository
	// WithinTx runs fn against a repository scoped to one unit of work.
	// Backends without transactions run fn against the shared repository.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo accounts.Repository) error) error
	Close(ctx context.Context) error
}
