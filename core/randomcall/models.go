package randomcall

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// CallLog records one selected student for one call. Rows produced by the
// same call share a CallID, so "avoid recent" fairness can look back over the
// last N selected students regardless of how many were picked per call.
type CallLog struct {
	ID        int       `db:"id" json:"id"`
	ClassID   int       `db:"class_id" json:"class_id"`
	StudentID int       `db:"student_id" json:"student_id"`
	CallID    string    `db:"call_id" json:"call_id"`
	CalledAt  time.Time `db:"called_at" json:"called_at"` // UTC
}

// SelectRequest asks for Count random students from a class roster,
// preferring students absent from the last AvoidRecentN call-log rows.
type SelectRequest struct {
	ClassID      int `json:"class_id" validate:"required"`
	Count        int `json:"count" validate:"required,min=1"`
	AvoidRecentN int `json:"avoid_recent_n" validate:"omitempty,min=0"`
}

func (sr SelectRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(sr)
}

// GroupRequest asks for the roster to be partitioned into GroupCount groups.
type GroupRequest struct {
	ClassID    int `json:"class_id" validate:"required"`
	GroupCount int `json:"group_count" validate:"required,min=1"`
}

func (gr GroupRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(gr)
}
