package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

func newFacultyPrefMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestFacultyPreferenceRepositoryUpsertAndGet(t *testing.T) {
	db, mock, cleanup := newFacultyPrefMock(t)
	defer cleanup()
	repo := NewFacultyPreferenceRepository(db)

	mock.ExpectExec("INSERT INTO faculty_preferences").
		WithArgs(sqlmock.AnyArg(), "Dr. Smith", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Upsert(context.Background(), &models.FacultyPreference{
		Faculty:       "Dr. Smith",
		PreferredDays: types.JSONText(`["Wednesday"]`),
	})
	require.NoError(t, err)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "faculty", "preferred_days", "preferred_time", "created_at", "updated_at"}).
		AddRow("pref-1", "Dr. Smith", `["Wednesday"]`, `[]`, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, faculty, preferred_days, preferred_time, created_at, updated_at FROM faculty_preferences WHERE faculty = $1")).
		WithArgs("Dr. Smith").
		WillReturnRows(rows)

	pref, err := repo.GetByFaculty(context.Background(), "Dr. Smith")
	require.NoError(t, err)
	assert.Equal(t, "pref-1", pref.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyPreferenceRepositoryListByDepartment(t *testing.T) {
	db, mock, cleanup := newFacultyPrefMock(t)
	defer cleanup()
	repo := NewFacultyPreferenceRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "faculty", "preferred_days", "preferred_time", "created_at", "updated_at"}).
		AddRow("pref-1", "Dr. Smith", `["Wednesday"]`, `[]`, now, now)
	mock.ExpectQuery("SELECT fp.id, fp.faculty").
		WithArgs("CS").
		WillReturnRows(rows)

	prefs, err := repo.ListByDepartment(context.Background(), "CS")
	require.NoError(t, err)
	require.Len(t, prefs, 1)
	assert.Equal(t, "Dr. Smith", prefs[0].Faculty)
	assert.NoError(t, mock.ExpectationsWereMet())
}
