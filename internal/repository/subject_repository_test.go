package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

func newSubjectMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSubjectRepositoryListByDepartment(t *testing.T) {
	db, mock, cleanup := newSubjectMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "code", "name", "faculty", "alternate_faculty", "hours_per_week", "lab_required", "department", "created_at", "updated_at"}).
		AddRow("s1", "CS601", "CS601", "Dr. Smith", "", 6, false, "CS", now, now)
	mock.ExpectQuery("SELECT .* FROM subjects WHERE department = \\$1").
		WithArgs("CS").
		WillReturnRows(rows)

	subjects, err := repo.ListByDepartment(context.Background(), "CS")
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "CS601", subjects[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSubjectMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec("INSERT INTO subjects").
		WithArgs(sqlmock.AnyArg(), "CS601", "CS601", "Dr. Smith", "", 6, false, "CS", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &models.Subject{
		Code:         "CS601",
		Name:         "CS601",
		Faculty:      "Dr. Smith",
		HoursPerWeek: 6,
		Department:   "CS",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
