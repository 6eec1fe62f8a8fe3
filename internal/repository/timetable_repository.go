package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

// TimetableRepository persists versioned, committed weekly timetables and
// their entries.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

func (r *TimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CommitVersioned writes a new timetable version and its entries as a single
// archive-then-insert unit against the provided extender, which callers
// should normally be a transaction: the previous committed version for the
// department/semester (if any) is archived, then the new version and its
// entries are inserted.
func (r *TimetableRepository) CommitVersioned(ctx context.Context, exec sqlx.ExtContext, version *models.TimetableVersion, entries []models.TimetableEntry) error {
	if version == nil {
		return fmt.Errorf("timetable version payload is nil")
	}
	if version.Department == "" || version.Semester == "" {
		return fmt.Errorf("department and semester are required")
	}
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	if version.Status == "" {
		version.Status = models.TimetableStatusCommitted
	}
	now := time.Now().UTC()
	if version.CreatedAt.IsZero() {
		version.CreatedAt = now
	}
	version.UpdatedAt = now

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM timetable_versions WHERE department = $1 AND semester = $2`
	if err := sqlx.GetContext(ctx, target, &version.Version, nextVersionQuery, version.Department, version.Semester); err != nil {
		return fmt.Errorf("compute next timetable version: %w", err)
	}

	const archiveQuery = `UPDATE timetable_versions SET status = $1, updated_at = $2 WHERE department = $3 AND semester = $4 AND status = $5`
	if _, err := target.ExecContext(ctx, archiveQuery, models.TimetableStatusArchived, now, version.Department, version.Semester, models.TimetableStatusCommitted); err != nil {
		return fmt.Errorf("archive previous timetable version: %w", err)
	}

	const insertVersionQuery = `
INSERT INTO timetable_versions (id, department, semester, version, mode, status, desired_free_periods, max_sessions_per_day, created_at, updated_at)
VALUES (:id, :department, :semester, :version, :mode, :status, :desired_free_periods, :max_sessions_per_day, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertVersionQuery, version); err != nil {
		return fmt.Errorf("insert timetable version: %w", err)
	}

	const insertEntryQuery = `
INSERT INTO timetable_entries (id, timetable_version_id, day, session_number, subject, created_at)
VALUES (:id, :timetable_version_id, :day, :session_number, :subject, :created_at)`
	for i := range entries {
		entry := &entries[i]
		entry.TimetableVersionID = version.ID
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, insertEntryQuery, entry); err != nil {
			return fmt.Errorf("insert timetable entry: %w", err)
		}
	}
	return nil
}

// ListByDepartmentSemester returns version summaries for a department/semester pair.
func (r *TimetableRepository) ListByDepartmentSemester(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableVersionSummary, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	const query = `
SELECT id, version, mode, status, created_at
FROM timetable_versions WHERE department = $1 AND semester = $2
ORDER BY version DESC LIMIT $3 OFFSET $4`
	var summaries []models.TimetableVersionSummary
	if err := r.db.SelectContext(ctx, &summaries, query, filter.Department, filter.Semester, size, offset); err != nil {
		return nil, fmt.Errorf("list timetable versions: %w", err)
	}
	return summaries, nil
}

// FindByID loads a timetable version header by its identifier.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.TimetableVersion, error) {
	const query = `SELECT id, department, semester, version, mode, status, desired_free_periods, max_sessions_per_day, created_at, updated_at FROM timetable_versions WHERE id = $1`
	var version models.TimetableVersion
	if err := r.db.GetContext(ctx, &version, query, id); err != nil {
		return nil, err
	}
	return &version, nil
}

// EntriesByVersion returns every grid cell belonging to a timetable version.
func (r *TimetableRepository) EntriesByVersion(ctx context.Context, versionID string) ([]models.TimetableEntry, error) {
	const query = `SELECT id, timetable_version_id, day, session_number, subject, created_at
FROM timetable_entries WHERE timetable_version_id = $1 ORDER BY day ASC, session_number ASC`
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, versionID); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// Delete removes a stored timetable version and its entries.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM timetable_versions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete timetable version: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable version rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
