package businesses

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"id", "owner_id", "name", "slug", "description", "category", "address", "city",
	"state", "zip", "country", "phone", "email", "website", "logo", "images", "tags", "rating",
	"review_count", "is_verified", "is_premium", "is_active", "created_at", "updated_at"}

var ts = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func bakeryRow(rows *sqlmock.Rows, id string) *sqlmock.Rows {
	return rows.AddRow(id, "o-1", "Corner Bakery", "corner-bakery", "Fresh bread", "restaurant",
		"1 Main St", "Springfield", "IL", "62701", "US", "555", "hi@bakery.test", "", "",
		[]byte(`["a.jpg","b.jpg"]`), []byte(`["bread"]`), 4.5, 2, false, false, true, ts, ts)
}

func TestBuildListQuery(t *testing.T) {
	q, args := buildListQuery(models.BusinessFilter{})
	assert.Contains(t, q, "WHERE is_active\n")
	assert.NotContains(t, q, "LIMIT")
	assert.Empty(t, args)

	q, args = buildListQuery(models.BusinessFilter{
		Category: "retail", City: "Springfield", Query: "50%_off", Limit: 10, Offset: 20,
	})
	assert.Contains(t, q, "category = $1")
	assert.Contains(t, q, "lower(city) = lower($2)")
	assert.Contains(t, q, "(name ILIKE $3 OR description ILIKE $3)")
	assert.Contains(t, q, "LIMIT $4 OFFSET $5")
	assert.Equal(t, []any{"retail", "Springfield", `%50\%\_off%`, 10, 20}, args)
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+businesses`).
		WithArgs("o-1", "Corner Bakery", "corner-bakery", "", "other", "", "", "", "", "", "", "", "", "",
			`[]`, `["bread"]`, false, false, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "rating", "review_count", "created_at", "updated_at"}).
			AddRow("b-1", 0.0, 0, ts, ts))

	got, err := repo.Create(context.Background(), &models.Business{
		OwnerID: "o-1", Name: "Corner Bakery", Slug: "corner-bakery", Category: "other",
		Tags: []string{"bread"}, IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "b-1", got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_SlugTaken(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+businesses`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	_, err := repo.Create(context.Background(), &models.Business{Slug: "taken"})
	assert.ErrorIs(t, err, common.ErrDuplicate)
}

func TestGetByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)FROM\s+businesses\s+WHERE\s+id\s*=\s*\$1`).WithArgs("b-1").
		WillReturnRows(bakeryRow(sqlmock.NewRows(cols), "b-1"))
	mock.ExpectQuery(`(?s)FROM\s+businesses\s+WHERE\s+id\s*=\s*\$1`).WithArgs("b-2").
		WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, got.Images)
	assert.Equal(t, []string{"bread"}, got.Tags)
	assert.Equal(t, 4.5, got.Rating)

	_, err = repo.GetByID(context.Background(), "b-2")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSlugExists(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT\s+EXISTS`).WithArgs("corner-bakery").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.SlugExists(context.Background(), "corner-bakery")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows(cols)
	bakeryRow(rows, "b-1")
	bakeryRow(rows, "b-2")
	mock.ExpectQuery(`(?s)FROM\s+businesses\s+WHERE\s+is_active\s+AND\s+category\s*=\s*\$1`).
		WithArgs("restaurant").WillReturnRows(rows)

	got, err := repo.List(context.Background(), models.BusinessFilter{Category: "restaurant"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b-2", got[1].ID)
}

func TestList_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+businesses`).WillReturnError(errors.New("db down"))

	_, err := repo.List(context.Background(), models.BusinessFilter{})
	assert.ErrorContains(t, err, "db error: db down")
}

func TestUpdate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^UPDATE\s+businesses\s+SET\s+name\s*=\s*\$2`).
		WillReturnRows(bakeryRow(sqlmock.NewRows(cols), "b-1"))

	got, err := repo.Update(context.Background(), &models.Business{ID: "b-1", Name: "Corner Bakery"})
	require.NoError(t, err)
	assert.Equal(t, "corner-bakery", got.Slug)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`DELETE\s+FROM\s+businesses`).WithArgs("b-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE\s+FROM\s+businesses`).WithArgs("b-2").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), "b-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "b-2"), common.ErrorNotFound)
}

func TestLockForUpdate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT\s+id\s+FROM\s+businesses\s+WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE`).
		WithArgs("b-1").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("b-1"))
	mock.ExpectQuery(`FOR\s+UPDATE`).WithArgs("b-2").WillReturnError(sql.ErrNoRows)

	assert.NoError(t, repo.LockForUpdate(context.Background(), "b-1"))
	assert.ErrorIs(t, repo.LockForUpdate(context.Background(), "b-2"), common.ErrorNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRating(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)UPDATE\s+businesses\s+SET\s+rating\s*=\s*\$2,\s*review_count\s*=\s*\$3`).
		WithArgs("b-1", 4.5, 2).WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.SetRating(context.Background(), "b-1", models.RatingSummary{Average: 4.5, Count: 2}))
}
