package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// FacultyPreference stores a faculty member's day and time biases used as a
// soft signal during generation. PreferredDays and PreferredTime are stored
// as JSON arrays of canonical labels.
type FacultyPreference struct {
	ID            string         `db:"id" json:"id"`
	Faculty       string         `db:"faculty" json:"faculty"`
	PreferredDays types.JSONText `db:"preferred_days" json:"preferred_days"`
	PreferredTime types.JSONText `db:"preferred_time" json:"preferred_time"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}
