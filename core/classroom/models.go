package classroom

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

type ClassRoom struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	TeacherID int       `db:"teacher_id" json:"teacher_id"`
	Grade     string    `db:"grade" json:"grade"`
	Semester  string    `db:"semester" json:"semester"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"` // UTC
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"` // UTC
}

// Membership links a student to a class; unique per (class, student) pair.
type Membership struct {
	ClassID   int       `db:"class_id" json:"class_id"`
	StudentID int       `db:"student_id" json:"student_id"`
	AddedAt   time.Time `db:"added_at" json:"added_at"` // UTC
}

// NewClassRoom contains information needed to create a new ClassRoom.
type NewClassRoom struct {
	Name      string `json:"name" validate:"required"`
	TeacherID int    `json:"teacher_id"` // defaults to the requesting teacher
	Grade     string `json:"grade"`
	Semester  string `json:"semester"`
	Capacity  int    `json:"capacity" validate:"omitempty,min=1"`
}

func (nc *NewClassRoom) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Grade = core.CleanString(nc.Grade)
	nc.Semester = core.CleanString(nc.Semester)
	return validate.Struct(nc)
}

// UpdateClassRoom defines what information may be provided to modify an existing ClassRoom.
type UpdateClassRoom struct {
	Name      string `json:"name"`
	TeacherID int    `json:"teacher_id"`
	Grade     string `json:"grade"`
	Semester  string `json:"semester"`
	Capacity  int    `json:"capacity" validate:"omitempty,min=1"`
}

func (uc *UpdateClassRoom) Validate(validate *validator.Validate, orig ClassRoom) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if uc.TeacherID == 0 {
		uc.TeacherID = orig.TeacherID
	}
	if grade := core.CleanString(uc.Grade); grade != "" {
		uc.Grade = grade
	} else {
		uc.Grade = orig.Grade
	}
	if semester := core.CleanString(uc.Semester); semester != "" {
		uc.Semester = semester
	} else {
		uc.Semester = orig.Semester
	}
	if uc.Capacity == 0 {
		uc.Capacity = orig.Capacity
	}
	return validate.Struct(uc)
}

// EnrollStudent identifies the student to add to a class roster.
type EnrollStudent struct {
	StudentID int `json:"student_id" validate:"required"`
}

func (es EnrollStudent) Validate(validate *validator.Validate) error {
	return validate.Struct(es)
}
