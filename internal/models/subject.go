package models

import "time"

// Subject represents a catalog subject eligible for timetable generation.
type Subject struct {
	ID               string    `db:"id" json:"id"`
	Code             string    `db:"code" json:"code"`
	Name             string    `db:"name" json:"name"`
	Faculty          string    `db:"faculty" json:"faculty"`
	AlternateFaculty string    `db:"alternate_faculty" json:"alternate_faculty,omitempty"`
	HoursPerWeek     int       `db:"hours_per_week" json:"hours_per_week"`
	LabRequired      bool      `db:"lab_required" json:"lab_required"`
	Department       string    `db:"department" json:"department"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing catalog subjects.
type SubjectFilter struct {
	Department string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
