package models

import "time"

// TimetableVersionStatus represents lifecycle phases for a generated timetable.
type TimetableVersionStatus string

const (
	TimetableStatusDraft     TimetableVersionStatus = "DRAFT"
	TimetableStatusCommitted TimetableVersionStatus = "COMMITTED"
	TimetableStatusArchived  TimetableVersionStatus = "ARCHIVED"
)

// TimetableVersion is the header row for one generated-and-committed weekly
// timetable for a department/semester pair.
type TimetableVersion struct {
	ID                 string                 `db:"id" json:"id"`
	Department         string                 `db:"department" json:"department"`
	Semester           string                 `db:"semester" json:"semester"`
	Version            int                    `db:"version" json:"version"`
	Mode               string                 `db:"mode" json:"mode"`
	Status             TimetableVersionStatus `db:"status" json:"status"`
	DesiredFreePeriods int                    `db:"desired_free_periods" json:"desired_free_periods"`
	MaxSessionsPerDay  int                    `db:"max_sessions_per_day" json:"max_sessions_per_day"`
	Warnings           []string               `db:"-" json:"warnings,omitempty"`
	CreatedAt          time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time              `db:"updated_at" json:"updated_at"`
}

// TimetableEntry is one grid cell belonging to a committed timetable version.
type TimetableEntry struct {
	ID                 string    `db:"id" json:"id"`
	TimetableVersionID string    `db:"timetable_version_id" json:"timetable_version_id"`
	Day                string    `db:"day" json:"day"`
	SessionNumber      int       `db:"session_number" json:"session_number"`
	Subject            string    `db:"subject" json:"subject"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// TimetableVersionSummary is the lightweight list-view projection returned
// for a department/semester query.
type TimetableVersionSummary struct {
	ID        string                 `json:"id"`
	Version   int                    `json:"version"`
	Mode      string                 `json:"mode"`
	Status    TimetableVersionStatus `json:"status"`
	CreatedAt time.Time              `json:"created_at"`
}

// TimetableFilter describes query params for listing timetable versions.
type TimetableFilter struct {
	Department string
	Semester   string
	Page       int
	PageSize   int
}
