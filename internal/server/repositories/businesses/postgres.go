package businesses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/dbx"
	"github.com/localbizsite/localbiz/internal/server/models"
)

const businessColumns = `id, owner_id, name, slug, description, category, address, city, state, zip,
		country, phone, email, website, logo, images, tags, rating, review_count,
		is_verified, is_premium, is_active, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBusiness(row scanner) (*models.Business, error) {
	b := &models.Business{}
	var images, tags []byte

	err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Slug, &b.Description, &b.Category,
		&b.Address, &b.City, &b.State, &b.Zip, &b.Country, &b.Phone, &b.Email, &b.Website,
		&b.Logo, &images, &tags, &b.Rating, &b.ReviewCount,
		&b.IsVerified, &b.IsPremium, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := decodeList(images, &b.Images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	if err := decodeList(tags, &b.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return b, nil
}

func decodeList(raw []byte, dst *[]string) error {
	if len(raw) == 0 {
		*dst = []string{}
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func encodeList(xs []string) string {
	if xs == nil {
		xs = []string{}
	}
	raw, _ := json.Marshal(xs)
	return string(raw)
}

func notFoundOr(err error) error {
	if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidInput(err) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, b *models.Business) (*models.Business, error) {
	query :=
		`INSERT INTO businesses (owner_id, name, slug, description, category, address, city, state, zip,
		     country, phone, email, website, logo, images, tags, is_verified, is_premium, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		 RETURNING id, rating, review_count, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		b.OwnerID, b.Name, b.Slug, b.Description, b.Category, b.Address, b.City, b.State, b.Zip,
		b.Country, b.Phone, b.Email, b.Website, b.Logo, encodeList(b.Images), encodeList(b.Tags),
		b.IsVerified, b.IsPremium, b.IsActive,
	).Scan(&b.ID, &b.Rating, &b.ReviewCount, &b.CreatedAt, &b.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrDuplicate
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses
		 WHERE id = $1
		 `

	b, err := scanBusiness(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return b, nil
}

func (r *PostgresRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM businesses WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func buildListQuery(f models.BusinessFilter) (string, []any) {
	where := []string{"is_active"}
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Category != "" {
		where = append(where, "category = "+arg(f.Category))
	}
	if f.City != "" {
		where = append(where, "lower(city) = lower("+arg(f.City)+")")
	}
	if f.OwnerID != "" {
		where = append(where, "owner_id = "+arg(f.OwnerID))
	}
	if f.Query != "" {
		p := arg("%" + likeEscaper.Replace(f.Query) + "%")
		where = append(where, "(name ILIKE "+p+" OR description ILIKE "+p+")")
	}

	query := `SELECT ` + businessColumns + ` FROM businesses
		 WHERE ` + strings.Join(where, " AND ") + `
		 ORDER BY is_premium DESC, rating DESC, created_at DESC`

	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + arg(f.Offset)
	}
	return query, args
}

func (r *PostgresRepository) List(ctx context.Context, f models.BusinessFilter) ([]*models.Business, error) {
	query, args := buildListQuery(f)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.Business{}
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, b *models.Business) (*models.Business, error) {
	query :=
		`UPDATE businesses SET name = $2, description = $3, category = $4, address = $5, city = $6,
		     state = $7, zip = $8, country = $9, phone = $10, email = $11, website = $12, logo = $13,
		     images = $14, tags = $15, is_active = $16, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + businessColumns

	got, err := scanBusiness(r.db.QueryRowContext(ctx, query,
		b.ID, b.Name, b.Description, b.Category, b.Address, b.City, b.State, b.Zip, b.Country,
		b.Phone, b.Email, b.Website, b.Logo, encodeList(b.Images), encodeList(b.Tags), b.IsActive))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return got, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM businesses WHERE id = $1`, id)
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

func (r *PostgresRepository) LockForUpdate(ctx context.Context, id string) error {
	var got string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM businesses WHERE id = $1 FOR UPDATE`, id).Scan(&got)
	if err != nil {
		return notFoundOr(err)
	}
	return nil
}

func (r *PostgresRepository) SetRating(ctx context.Context, id string, s models.RatingSummary) error {
	query :=
		`UPDATE businesses SET rating = $2, review_count = $3, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, s.Average, s.Count)
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
