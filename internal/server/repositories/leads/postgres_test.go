package leads

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ts = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

var cols = []string{"id", "business_id", "name", "email", "phone", "message", "source", "status", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+leads`).
		WithArgs("b-1", "Bob", "bob@x.com", "", "hi", models.LeadSourceContactForm, models.LeadStatusNew).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("l-1", ts, ts))

	got, err := repo.Create(context.Background(), &models.Lead{
		BusinessID: "b-1", Name: "Bob", Email: "bob@x.com", Message: "hi",
		Source: models.LeadSourceContactForm, Status: models.LeadStatusNew,
	})
	require.NoError(t, err)
	assert.Equal(t, "l-1", got.ID)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+leads`).WithArgs("l-9").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "l-9")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListByOwner(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows(cols).
		AddRow("l-2", "b-1", "Ann", "", "555", "", "cta_button", "new", ts, ts).
		AddRow("l-1", "b-1", "Bob", "bob@x.com", "", "hi", "contact_form", "contacted", ts, ts)
	mock.ExpectQuery(`(?s)JOIN\s+businesses\s+b\s+ON\s+b\.id\s*=\s*l\.business_id\s+WHERE\s+b\.owner_id\s*=\s*\$1`).
		WithArgs("o-1").WillReturnRows(rows)

	got, err := repo.ListByOwner(context.Background(), "o-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.LeadStatusContacted, got[1].Status)
}

func TestListByOwner_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+leads`).WillReturnError(errors.New("db down"))

	_, err := repo.ListByOwner(context.Background(), "o-1")
	assert.ErrorContains(t, err, "db error: db down")
}

func TestUpdateStatus(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^UPDATE\s+leads\s+l\s+SET\s+status\s*=\s*\$2`).WithArgs("l-1", "closed").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("l-1", "b-1", "Bob", "", "", "", "contact_form", "closed", ts, ts))
	mock.ExpectQuery(`(?s)^UPDATE\s+leads`).WithArgs("l-9", "closed").WillReturnError(sql.ErrNoRows)

	got, err := repo.UpdateStatus(context.Background(), "l-1", "closed")
	require.NoError(t, err)
	assert.Equal(t, "closed", got.Status)

	_, err = repo.UpdateStatus(context.Background(), "l-9", "closed")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
