package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kreedentials/store/internal/domain"
	"github.com/kreedentials/store/pkg/database"
	apperrors "github.com/kreedentials/store/pkg/errors"
)

const accountColumns = "id, email, password_hash, created_at, updated_at"

// AccountRepository implements repository.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db     database.DBTX
	tracer database.QueryTracer
}

// NewAccountRepository creates a new PostgreSQL-backed account repository.
func NewAccountRepository(db database.DBTX, tracer database.QueryTracer) *AccountRepository {
	return &AccountRepository{db: db, tracer: tracer}
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) (err error) {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5)`

	ctx, end := r.tracer.Start(ctx, "CreateAccount", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		a.ID,
		a.Email,
		a.PasswordHash,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("account", "email", a.Email)
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by id.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(ctx, "GetAccountByID", query, id)
}

// GetByEmail retrieves an account by email, case-insensitively.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE LOWER(email) = LOWER($1)`
	return r.scanAccount(ctx, "GetAccountByEmail", query, email)
}

func (r *AccountRepository) scanAccount(ctx context.Context, operation, query string, key string) (_ *domain.Account, err error) {
	ctx, end := r.tracer.Start(ctx, operation, query)
	defer func() { end(err) }()

	var a domain.Account
	err = r.db.QueryRow(ctx, query, key).Scan(
		&a.ID,
		&a.Email,
		&a.PasswordHash,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("account", key)
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "23505")
}
