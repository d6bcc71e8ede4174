package leads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/dbx"
	"github.com/localbizsite/localbiz/internal/server/models"
)

const leadColumns = `l.id, l.business_id, l.name, l.email, l.phone, l.message, l.source, l.status, l.created_at, l.updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLead(row scanner) (*models.Lead, error) {
	l := &models.Lead{}
	err := row.Scan(&l.ID, &l.BusinessID, &l.Name, &l.Email, &l.Phone, &l.Message,
		&l.Source, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func notFoundOr(err error) error {
	if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidInput(err) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, l *models.Lead) (*models.Lead, error) {
	query :=
		`INSERT INTO leads (business_id, name, email, phone, message, source, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, l.BusinessID, l.Name, l.Email, l.Phone, l.Message, l.Source, l.Status).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return l, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads l
		 WHERE l.id = $1
		 `

	l, err := scanLead(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return l, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads l
		 JOIN businesses b ON b.id = l.business_id
		 WHERE b.owner_id = $1
		 ORDER BY l.created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, status string) (*models.Lead, error) {
	query :=
		`UPDATE leads l SET status = $2, updated_at = now()
		 WHERE l.id = $1
		 RETURNING ` + leadColumns

	l, err := scanLead(r.db.QueryRowContext(ctx, query, id, status))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return l, nil
}
