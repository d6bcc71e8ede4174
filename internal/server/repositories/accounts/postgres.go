package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/dbx"
	"github.com/localbizsite/localbiz/internal/server/models"
)

const accountColumns = `id, email, password_hash, name, phone, role, plan_key,
		is_verified, is_active, token_epoch, created_at, updated_at, last_login_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*models.Account, error) {
	a := &models.Account{}
	var role string
	var lastLogin sql.NullTime

	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.Phone, &role, &a.PlanKey,
		&a.IsVerified, &a.IsActive, &a.TokenEpoch, &a.CreatedAt, &a.UpdatedAt, &lastLogin)
	if err != nil {
		return nil, err
	}

	a.Role = models.Role(role)
	if lastLogin.Valid {
		t := lastLogin.Time
		a.LastLoginAt = &t
	}
	return a, nil
}

func notFoundOr(err error) error {
	if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidInput(err) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {

	query :=
		`INSERT INTO accounts (email, password_hash, name, phone, role, plan_key, is_verified, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, token_epoch, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		a.Email, a.PasswordHash, a.Name, a.Phone, string(a.Role), a.PlanKey, a.IsVerified, a.IsActive,
	).Scan(&a.ID, &a.TokenEpoch, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return a, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		 WHERE lower(email) = lower($1)
		 `

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return a, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		 WHERE id = $1
		 `

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return a, nil
}

func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	query :=
		`UPDATE accounts SET last_login_at = $2
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return notFoundOr(err)
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

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id, name, phone string) (*models.Account, error) {
	query :=
		`UPDATE accounts SET name = $2, phone = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + accountColumns

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id, name, phone))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return a, nil
}

func (r *PostgresRepository) BumpTokenEpoch(ctx context.Context, id string) (int64, error) {
	query :=
		`UPDATE accounts SET token_epoch = token_epoch + 1
		 WHERE id = $1
		 RETURNING token_epoch
		 `

	var epoch int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&epoch); err != nil {
		return 0, notFoundOr(err)
	}
	return epoch, nil
}

func (r *PostgresRepository) UpdateRole(ctx context.Context, id string, role models.Role) (*models.Account, error) {
	query :=
		`UPDATE accounts SET role = $2, token_epoch = token_epoch + 1, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + accountColumns

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id, string(role)))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return a, nil
}
