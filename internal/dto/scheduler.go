package dto

// SubjectInput describes one subject's demand for a generation request.
type SubjectInput struct {
	Code             string `json:"code" validate:"required"`
	Name             string `json:"name" validate:"required"`
	Faculty          string `json:"faculty" validate:"required"`
	AlternateFaculty string `json:"alternateFaculty"`
	HoursPerWeek     int    `json:"hoursPerWeek" validate:"required,min=1"`
	LabRequired      bool   `json:"labRequired"`
	Department       string `json:"department"`
}

// FacultyPreferenceInput carries a faculty member's soft placement bias.
// PreferredTime entries are validated against the canonical time-grid
// labels but never consulted for placement.
type FacultyPreferenceInput struct {
	Faculty       string   `json:"faculty" validate:"required"`
	PreferredDays []string `json:"preferredDays" validate:"omitempty,dive,oneof=Monday Tuesday Wednesday Thursday Friday"`
	PreferredTime []string `json:"preferredTime"`
}

// GenerationRequest is the external contract for POST /timetables/generate.
type GenerationRequest struct {
	Department          string                   `json:"department" validate:"required"`
	Semester            string                   `json:"semester" validate:"required"`
	Subjects            []SubjectInput           `json:"subjects" validate:"required,min=1,dive"`
	FacultyPreferences  []FacultyPreferenceInput `json:"facultyPreferences" validate:"omitempty,dive"`
	MaxSessionsPerDay   int                      `json:"maxSessionsPerDay" validate:"omitempty,min=1,max=11"`
	DesiredFreePeriods  *int                     `json:"desiredFreePeriods" validate:"omitempty,min=0"`
	Mode                string                   `json:"mode" validate:"omitempty,oneof=weighted backtracking"`
	Async               bool                     `json:"async"`
}

// GenerationEntry is one output grid cell.
type GenerationEntry struct {
	Day           string `json:"day"`
	SessionNumber int    `json:"sessionNumber"`
	Subject       string `json:"subject"`
}

// GenerationResponse is the synchronous preview response for a generation
// request: a candidate timetable that has not yet been committed.
type GenerationResponse struct {
	PreviewID          string            `json:"previewId"`
	Mode               string            `json:"mode"`
	DesiredFreePeriods int               `json:"desiredFreePeriods"`
	Entries            []GenerationEntry `json:"entries"`
	Warnings           []string          `json:"warnings,omitempty"`
	Violations         []string          `json:"violations,omitempty"`
}

// AsyncGenerationResponse is returned when mode=backtracking&async=true,
// pointing the caller at a job to poll.
type AsyncGenerationResponse struct {
	JobID string `json:"jobId"`
}

// CommitRequest persists a previously generated preview as the committed
// write-once result set for a department/semester.
type CommitRequest struct {
	PreviewID string `json:"previewId" validate:"required"`
}

// CommitResponse echoes the persisted timetable version.
type CommitResponse struct {
	TimetableVersionID string `json:"timetableVersionId"`
	Version            int    `json:"version"`
}

// ValidateResponse is returned by POST /timetables/{id}/validate.
type ValidateResponse struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
	Repaired   bool     `json:"repaired"`
}

// TimetableQuery filters stored timetable versions by department and semester.
type TimetableQuery struct {
	Department string `form:"department" json:"department"`
	Semester   string `form:"semester" json:"semester"`
}
