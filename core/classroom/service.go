package classroom

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("class not found")
	ErrAlreadyEnrolled = core.NewConflictError("student is already enrolled in this class")
	ErrNotEnrolled     = core.NewNotFoundError("student is not enrolled in this class")
	ErrNotOwner        = core.NewPermissionError("only the class teacher or an admin may do this")

	errNotAStudent = errors.New("only students can be enrolled in a class")
	errClassFull   = errors.New("class is at full capacity")
)

type (
	Repository interface {
		CreateClassRoom(ctx context.Context, class ClassRoom) (ClassRoom, error)
		GetClassRoomByID(ctx context.Context, id int) (ClassRoom, error)
		QueryAllClassRooms(ctx context.Context) ([]ClassRoom, error)
		QueryClassRoomsByTeacher(ctx context.Context, teacherID int) ([]ClassRoom, error)
		QueryClassRoomsByStudent(ctx context.Context, studentID int) ([]ClassRoom, error)
		UpdateClassRoom(ctx context.Context, class ClassRoom) (ClassRoom, error)
		DeleteClassRoom(ctx context.Context, id int) error
		// CreateMembership returns ErrAlreadyEnrolled on a duplicate
		// (class, student) pair; the constraint lives in the store.
		CreateMembership(ctx context.Context, m Membership) (Membership, error)
		DeleteMembership(ctx context.Context, classID, studentID int) error
		IsEnrolled(ctx context.Context, classID, studentID int) (bool, error)
		QueryRoster(ctx context.Context, classID int) ([]user.User, error)
		CountMemberships(ctx context.Context, classID int) (int, error)
	}

	// UserDirectory is the slice of the user service this package needs.
	UserDirectory interface {
		GetByID(ctx context.Context, id int) (user.User, error)
	}

	Service struct {
		repo  Repository
		users UserDirectory
	}
)

func NewService(repo Repository, users UserDirectory) *Service {
	return &Service{repo: repo, users: users}
}

// CanManage reports whether actor owns the class or is an admin.
func CanManage(actor user.User, class ClassRoom) bool {
	return actor.IsAdmin() || (actor.IsTeacher() && class.TeacherID == actor.ID)
}

func (svc *Service) Create(ctx context.Context, actor user.User, nc NewClassRoom) (ClassRoom, error) {
	teacherID := nc.TeacherID
	if teacherID == 0 {
		teacherID = actor.ID
	}
	// only admins may create classes on behalf of another teacher
	if teacherID != actor.ID && !actor.IsAdmin() {
		return ClassRoom{}, ErrNotOwner
	}
	teacher, err := svc.users.GetByID(ctx, teacherID)
	if err != nil {
		return ClassRoom{}, errors.Wrap(err, "getting teacher")
	}
	if !teacher.IsTeacher() && !teacher.IsAdmin() {
		return ClassRoom{}, core.NewValidationError(nil, core.FieldError{
			Field: "teacher_id", Error: "user is not a teacher",
		})
	}

	now := time.Now().UTC()
	class := ClassRoom{
		Name:      nc.Name,
		TeacherID: teacherID,
		Grade:     nc.Grade,
		Semester:  nc.Semester,
		Capacity:  nc.Capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateClassRoom(ctx, class)
}

func (svc *Service) GetByID(ctx context.Context, id int) (ClassRoom, error) {
	return svc.repo.GetClassRoomByID(ctx, id)
}

// QueryForUser lists the classes visible to the actor: all for admins, owned
// for teachers, enrolled for students.
func (svc *Service) QueryForUser(ctx context.Context, actor user.User) ([]ClassRoom, error) {
	switch {
	case actor.IsAdmin():
		return svc.repo.QueryAllClassRooms(ctx)
	case actor.IsTeacher():
		return svc.repo.QueryClassRoomsByTeacher(ctx, actor.ID)
	default:
		return svc.repo.QueryClassRoomsByStudent(ctx, actor.ID)
	}
}

func (svc *Service) Update(ctx context.Context, actor user.User, id int, uc UpdateClassRoom) (ClassRoom, error) {
	class, err := svc.repo.GetClassRoomByID(ctx, id)
	if err != nil {
		return ClassRoom{}, err
	}
	if !CanManage(actor, class) {
		return ClassRoom{}, ErrNotOwner
	}
	if uc.TeacherID != class.TeacherID && !actor.IsAdmin() {
		return ClassRoom{}, ErrNotOwner // teacher reassignment is admin-only
	}

	class.Name = uc.Name
	class.TeacherID = uc.TeacherID
	class.Grade = uc.Grade
	class.Semester = uc.Semester
	class.Capacity = uc.Capacity
	class.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClassRoom(ctx, class)
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id int) error {
	class, err := svc.repo.GetClassRoomByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanManage(actor, class) {
		return ErrNotOwner
	}
	return svc.repo.DeleteClassRoom(ctx, id)
}

func (svc *Service) Enroll(ctx context.Context, actor user.User, classID, studentID int) (Membership, error) {
	class, err := svc.repo.GetClassRoomByID(ctx, classID)
	if err != nil {
		return Membership{}, err
	}
	if !CanManage(actor, class) {
		return Membership{}, ErrNotOwner
	}
	student, err := svc.users.GetByID(ctx, studentID)
	if err != nil {
		return Membership{}, err
	}
	if !student.IsStudent() {
		return Membership{}, core.NewValidationError(errNotAStudent, core.FieldError{
			Field: "student_id", Error: errNotAStudent.Error(),
		})
	}
	if class.Capacity > 0 {
		count, err := svc.repo.CountMemberships(ctx, classID)
		if err != nil {
			return Membership{}, err
		}
		if count >= class.Capacity {
			return Membership{}, core.NewValidationError(errClassFull)
		}
	}

	m := Membership{
		ClassID:   classID,
		StudentID: studentID,
		AddedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateMembership(ctx, m)
}

func (svc *Service) Unenroll(ctx context.Context, actor user.User, classID, studentID int) error {
	class, err := svc.repo.GetClassRoomByID(ctx, classID)
	if err != nil {
		return err
	}
	if !CanManage(actor, class) {
		return ErrNotOwner
	}
	return svc.repo.DeleteMembership(ctx, classID, studentID)
}

func (svc *Service) IsEnrolled(ctx context.Context, classID, studentID int) (bool, error) {
	return svc.repo.IsEnrolled(ctx, classID, studentID)
}

// Roster returns the students enrolled in a class.
func (svc *Service) Roster(ctx context.Context, classID int) ([]user.User, error) {
	if _, err := svc.repo.GetClassRoomByID(ctx, classID); err != nil {
		return nil, err
	}
	return svc.repo.QueryRoster(ctx, classID)
}
