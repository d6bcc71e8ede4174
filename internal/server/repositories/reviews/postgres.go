package reviews

import (
	"context"
	"fmt"

	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/dbx"
	"github.com/localbizsite/localbiz/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rv *models.Review) (*models.Review, error) {
	query :=
		`INSERT INTO reviews (business_id, author_id, rating, comment)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, rv.BusinessID, rv.AuthorID, rv.Rating, rv.Comment).
		Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrDuplicate
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rv, nil
}

func (r *PostgresRepository) ListByBusiness(ctx context.Context, businessID string) ([]*models.Review, error) {
	query :=
		`SELECT id, business_id, author_id, rating, comment, created_at FROM reviews
		 WHERE business_id = $1
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, businessID)
	if err != nil {
		if dbx.IsInvalidInput(err) {
			return []*models.Review{}, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.Review{}
	for rows.Next() {
		rv := &models.Review{}
		if err := rows.Scan(&rv.ID, &rv.BusinessID, &rv.AuthorID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Summary(ctx context.Context, businessID string) (models.RatingSummary, error) {
	query :=
		`SELECT COALESCE(AVG(rating)::float8, 0), COUNT(*) FROM reviews
		 WHERE business_id = $1
		 `

	var s models.RatingSummary
	if err := r.db.QueryRowContext(ctx, query, businessID).Scan(&s.Average, &s.Count); err != nil {
		return models.RatingSummary{}, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}
