// Package accounts declares the credential store contract and its
// PostgreSQL and MongoDB implementations.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/shopauth/internal/server/models"
)

// Repository persists accounts. Lookups return common.ErrorNotFound when no
// account matches; Create returns common.ErrEmailTaken or common.ErrMobileTaken
// when a unique field collides.
type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByMobile(ctx context.Context, mobile string) (*models.Account, error)
	UpdatePassword(ctx context.Context, id string, passwordHash []byte) error
	UpdateRole(ctx context.Context, id string, role models.Role, passwordHash []byte) error
}
