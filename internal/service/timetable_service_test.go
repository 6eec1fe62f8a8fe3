package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
)

type subjectCatalogStub struct {
	subjects []models.Subject
}

func (s subjectCatalogStub) ListByDepartment(ctx context.Context, department string) ([]models.Subject, error) {
	return s.subjects, nil
}

type facultyPreferenceCatalogStub struct {
	prefs []models.FacultyPreference
}

func (s facultyPreferenceCatalogStub) ListByDepartment(ctx context.Context, department string) ([]models.FacultyPreference, error) {
	return s.prefs, nil
}

type timetableRepositoryStub struct {
	committed  *models.TimetableVersion
	versions   map[string]*models.TimetableVersion
	entriesFor map[string][]models.TimetableEntry
}

func newTimetableRepositoryStub() *timetableRepositoryStub {
	return &timetableRepositoryStub{
		versions:   make(map[string]*models.TimetableVersion),
		entriesFor: make(map[string][]models.TimetableEntry),
	}
}

func (s *timetableRepositoryStub) CommitVersioned(ctx context.Context, exec sqlx.ExtContext, version *models.TimetableVersion, entries []models.TimetableEntry) error {
	version.ID = "tv-1"
	version.Version = 1
	s.committed = version
	s.versions[version.ID] = version
	s.entriesFor[version.ID] = entries
	return nil
}

func (s *timetableRepositoryStub) ListByDepartmentSemester(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableVersionSummary, error) {
	var out []models.TimetableVersionSummary
	for _, v := range s.versions {
		out = append(out, models.TimetableVersionSummary{ID: v.ID, Version: v.Version, Mode: v.Mode, Status: v.Status})
	}
	return out, nil
}

func (s *timetableRepositoryStub) FindByID(ctx context.Context, id string) (*models.TimetableVersion, error) {
	v, ok := s.versions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return v, nil
}

func (s *timetableRepositoryStub) EntriesByVersion(ctx context.Context, versionID string) ([]models.TimetableEntry, error) {
	return s.entriesFor[versionID], nil
}

func (s *timetableRepositoryStub) Delete(ctx context.Context, id string) error {
	delete(s.versions, id)
	return nil
}

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func newTxProviderMock(t *testing.T) (*txProviderMock, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func sampleSubjects() []models.Subject {
	return []models.Subject{
		{Code: "MATH101", Name: "Calculus I", Faculty: "Dr. Ada", HoursPerWeek: 6, Department: "CS"},
		{Code: "CS201", Name: "Data Structures", Faculty: "Dr. Grace", HoursPerWeek: 6, LabRequired: true, Department: "CS"},
		{Code: "PHY101", Name: "Physics I", Faculty: "Dr. Curie", HoursPerWeek: 6, Department: "CS"},
		{Code: "CS202", Name: "Algorithms", Faculty: "Dr. Knuth", HoursPerWeek: 6, Department: "CS"},
		{Code: "CS203", Name: "Operating Systems", Faculty: "Dr. Ritchie", HoursPerWeek: 6, Department: "CS"},
	}
}

func newGenerationRequest() dto.GenerationRequest {
	return dto.GenerationRequest{
		Department: "CS",
		Semester:   "2026-1",
		Subjects: []dto.SubjectInput{
			{Code: "MATH101", Name: "Calculus I", Faculty: "Dr. Ada", HoursPerWeek: 6, Department: "CS"},
			{Code: "CS201", Name: "Data Structures", Faculty: "Dr. Grace", HoursPerWeek: 6, LabRequired: true, Department: "CS"},
			{Code: "PHY101", Name: "Physics I", Faculty: "Dr. Curie", HoursPerWeek: 6, Department: "CS"},
			{Code: "CS202", Name: "Algorithms", Faculty: "Dr. Knuth", HoursPerWeek: 6, Department: "CS"},
			{Code: "CS203", Name: "Operating Systems", Faculty: "Dr. Ritchie", HoursPerWeek: 6, Department: "CS"},
		},
	}
}

func TestScheduleGeneratorServiceGenerateWeighted(t *testing.T) {
	repo := newTimetableRepositoryStub()
	svc := NewScheduleGeneratorService(subjectCatalogStub{}, facultyPreferenceCatalogStub{}, repo, nil, nil, nil, nil, nil, nil, ScheduleGeneratorConfig{})

	resp, err := svc.Generate(context.Background(), newGenerationRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.PreviewID)
	assert.Equal(t, "weighted", resp.Mode)
	assert.Len(t, resp.Entries, 55)
}

func TestScheduleGeneratorServiceGenerateRejectsInvalidPreferredTime(t *testing.T) {
	repo := newTimetableRepositoryStub()
	svc := NewScheduleGeneratorService(subjectCatalogStub{}, facultyPreferenceCatalogStub{}, repo, nil, nil, nil, nil, nil, nil, ScheduleGeneratorConfig{})

	req := newGenerationRequest()
	req.FacultyPreferences = []dto.FacultyPreferenceInput{
		{Faculty: "Dr. Ada", PreferredTime: []string{"not-a-real-slot"}},
	}

	_, err := svc.Generate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceCommitPersistsPreview(t *testing.T) {
	repo := newTimetableRepositoryStub()
	tx, mock := newTxProviderMock(t)
	svc := NewScheduleGeneratorService(subjectCatalogStub{}, facultyPreferenceCatalogStub{}, repo, tx, nil, nil, nil, nil, nil, ScheduleGeneratorConfig{})

	genResp, err := svc.Generate(context.Background(), newGenerationRequest())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	commitResp, err := svc.Commit(context.Background(), dto.CommitRequest{PreviewID: genResp.PreviewID})
	require.NoError(t, err)
	assert.Equal(t, "tv-1", commitResp.TimetableVersionID)
	assert.Equal(t, 1, commitResp.Version)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, found := svc.previews.Get(context.Background(), genResp.PreviewID)
	assert.False(t, found, "preview should be removed once committed")
}

func TestScheduleGeneratorServiceCommitRejectsViolatedPreview(t *testing.T) {
	repo := newTimetableRepositoryStub()
	tx, _ := newTxProviderMock(t)
	svc := NewScheduleGeneratorService(subjectCatalogStub{}, facultyPreferenceCatalogStub{}, repo, tx, nil, nil, nil, nil, nil, ScheduleGeneratorConfig{})

	previewID := "preview-with-violations"
	require.NoError(t, svc.previews.Save(context.Background(), previewID, previewPayload{
		Department: "CS",
		Semester:   "2026-1",
		Mode:       "weighted",
		Entries:    []dto.GenerationEntry{{Day: "Monday", SessionNumber: 1, Subject: "Free Period"}},
		Violations: []string{"total free-period count 1 does not equal desired 0"},
		CreatedAt:  time.Now(),
	}))

	_, err := svc.Commit(context.Background(), dto.CommitRequest{PreviewID: previewID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, found := svc.previews.Get(context.Background(), previewID)
	assert.True(t, found, "rejected preview should remain cached for retry")
}

func TestScheduleGeneratorServiceCommitUnknownPreview(t *testing.T) {
	repo := newTimetableRepositoryStub()
	tx, _ := newTxProviderMock(t)
	svc := NewScheduleGeneratorService(subjectCatalogStub{}, facultyPreferenceCatalogStub{}, repo, tx, nil, nil, nil, nil, nil, ScheduleGeneratorConfig{})

	_, err := svc.Commit(context.Background(), dto.CommitRequest{PreviewID: "missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceValidateRoundTrips(t *testing.T) {
	repo := newTimetableRepositoryStub()
	tx, mock := newTxProviderMock(t)
	svc := NewScheduleGeneratorService(subjectCatalogStub{subjects: sampleSubjects()}, facultyPreferenceCatalogStub{}, repo, tx, nil, nil, nil, nil, nil, ScheduleGeneratorConfig{})

	genResp, err := svc.Generate(context.Background(), newGenerationRequest())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	commitResp, err := svc.Commit(context.Background(), dto.CommitRequest{PreviewID: genResp.PreviewID})
	require.NoError(t, err)

	result, err := svc.Validate(context.Background(), commitResp.TimetableVersionID, false)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}
