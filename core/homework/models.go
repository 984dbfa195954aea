package homework

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
)

// Submission statuses. A returned submission permits a new attempt; attempts
// after the first carry StatusResubmitted so graders can tell them apart.
const (
	StatusSubmitted   = "submitted"
	StatusResubmitted = "resubmitted"
	StatusGraded      = "graded"
	StatusReturned    = "returned"
)

type Assignment struct {
	ID          int       `db:"id" json:"id"`
	ClassID     int       `db:"class_id" json:"class_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	DueDate     time.Time `db:"due_date" json:"due_date"` // UTC
	CreatedBy   int       `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"` // UTC
}

// Submission is one attempt for a given (assignment, student) pair. Grade
// fields are only populated once the submission has been graded.
type Submission struct {
	ID           int         `db:"id" json:"id"`
	AssignmentID int         `db:"assignment_id" json:"assignment_id"`
	StudentID    int         `db:"student_id" json:"student_id"`
	Attempt      int         `db:"attempt" json:"attempt"`
	Content      string      `db:"content" json:"content"`
	Status       string      `db:"status" json:"status"`
	Late         bool        `db:"late" json:"late"`
	Score        null.Int    `db:"score" json:"score"`
	Feedback     null.String `db:"feedback" json:"feedback"`
	GradedBy     null.Int    `db:"graded_by" json:"graded_by"`
	GradedAt     null.Time   `db:"graded_at" json:"graded_at"` // UTC
	SubmittedAt  time.Time   `db:"submitted_at" json:"submitted_at"` // UTC
}

// Gradable reports whether the submission may transition to graded.
func (s Submission) Gradable() bool {
	return s.Status == StatusSubmitted || s.Status == StatusResubmitted
}

// NewAssignment contains information needed to create an Assignment.
type NewAssignment struct {
	ClassID     int       `json:"class_id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date" validate:"required"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	return validate.Struct(na)
}

// SubmitHomework is a student's submission payload.
type SubmitHomework struct {
	Content string `json:"content" validate:"required"`
}

func (sh *SubmitHomework) Validate(validate *validator.Validate) error {
	sh.Content = core.CleanString(sh.Content)
	return validate.Struct(sh)
}

// GradeHomework is a grader's payload.
type GradeHomework struct {
	Score    int    `json:"score" validate:"min=0,max=100"`
	Feedback string `json:"feedback"`
}

func (gh *GradeHomework) Validate(validate *validator.Validate) error {
	gh.Feedback = core.CleanString(gh.Feedback)
	return validate.Struct(gh)
}
