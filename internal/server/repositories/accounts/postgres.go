package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"

	emailConstraint  = "accounts_email_key"
	mobileConstraint = "accounts_mobile_key"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectAccount = `SELECT id, name, email, password_hash, role, mobile, created_at, updated_at FROM accounts`

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {

	query :=
		`INSERT INTO accounts (id, name, email, password_hash, role, mobile)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at
		 `

	id := uuid.New().String()

	err := r.db.QueryRowContext(ctx, query,
		id, account.Name, account.Email, account.PasswordHash, string(account.Role), nullable(account.Mobile)).
		Scan(&account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		if dup := uniqueViolation(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	account.ID = id
	return account, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, selectAccount+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getOne(ctx, selectAccount+` WHERE email = $1`, email)
}

func (r *PostgresRepository) GetByMobile(ctx context.Context, mobile string) (*models.Account, error) {
	return r.getOne(ctx, selectAccount+` WHERE mobile = $1`, mobile)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, passwordHash []byte) error {
	query :=
		`UPDATE accounts SET password_hash = $2, updated_at = now()
		 WHERE id = $1
		 `
	return r.updateOne(ctx, query, id, passwordHash)
}

func (r *PostgresRepository) UpdateRole(ctx context.Context, id string, role models.Role, passwordHash []byte) error {
	query :=
		`UPDATE accounts SET role = $2, password_hash = $3, updated_at = now()
		 WHERE id = $1
		 `
	return r.updateOne(ctx, query, id, string(role), passwordHash)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	var (
		account models.Account
		role    string
		mobile  sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID, &account.Name, &account.Email, &account.PasswordHash,
		&role, &mobile, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	account.Role = models.Role(role)
	account.Mobile = mobile.String
	return &account, nil
}

func (r *PostgresRepository) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// uniqueViolation maps a unique index violation to the matching identity error.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case emailConstraint:
		return common.ErrEmailTaken
	case mobileConstraint:
		return common.ErrMobileTaken
	default:
		return common.ErrDuplicateIdentity
	}
}
