package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
)

// Session is a time-bounded, class-scoped token permitting students to
// record presence. Its signing token is distinct from the primary key so
// session ids cannot be guessed from the scan URL.
type Session struct {
	ID        int       `db:"id" json:"id"`
	ClassID   int       `db:"class_id" json:"class_id"`
	Token     string    `db:"token" json:"token"`
	CreatedAt time.Time `db:"created_at" json:"created_at"` // UTC
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"` // UTC
}

// Expired reports whether the session is past its TTL. There is no stored
// state flip; expiry is derived lazily at query time.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Record is one student's presence against a session; at most one exists
// per (session, student).
type Record struct {
	ID        int         `db:"id" json:"id"`
	SessionID int         `db:"session_id" json:"session_id"`
	StudentID int         `db:"student_id" json:"student_id"`
	ScannedAt time.Time   `db:"scanned_at" json:"scanned_at"` // UTC
	Location  null.String `db:"location" json:"location"`
	Signature null.String `db:"signature" json:"signature"`
}

// Stats summarizes attendance activity for one class.
type Stats struct {
	ClassID         int `db:"class_id" json:"class_id"`
	Sessions        int `db:"sessions" json:"sessions"`
	Records         int `db:"records" json:"records"`
	StudentsPresent int `db:"students_present" json:"students_present"` // distinct students with ≥1 record
	RosterSize      int `db:"roster_size" json:"roster_size"`
}

// NewSession contains information needed to open a signing session.
type NewSession struct {
	ClassID    int `json:"class_id" validate:"required"`
	TTLSeconds int `json:"ttl_seconds" validate:"omitempty,min=1"`
}

func (ns NewSession) Validate(validate *validator.Validate) error {
	return validate.Struct(ns)
}

// ScanRequest is a student's signed presence payload.
type ScanRequest struct {
	Location  string `json:"location"`
	Signature string `json:"signature"`
}
