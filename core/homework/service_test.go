package homework_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/classroom"
	"github.com/trezcool/shule/core/homework"
	"github.com/trezcool/shule/core/user"
	dummydb "github.com/trezcool/shule/storage/database/dummy"
)

type testEnv struct {
	svc      *homework.Service
	classSvc *classroom.Service
	usrRepo  user.Repository
	teacher  user.User
	student  user.User
	class    classroom.ClassRoom
}

type mailServiceNoop struct{}

func (mailServiceNoop) SendMessages(...*core.EmailMessage) {}

func setup(t *testing.T) testEnv {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	conf := &core.Config{AppName: "Shule", TestMode: true, SecretKey: []byte("secret")}
	usrRepo := dummydb.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, mailServiceNoop{}, conf)
	classSvc := classroom.NewService(dummydb.NewClassRoomRepository(db), usrSvc)
	svc := homework.NewService(dummydb.NewHomeworkRepository(db), classSvc)

	ctx := context.Background()
	teacherRole, _ := usrRepo.GetRoleByName(ctx, user.RoleTeacher)
	studentRole, _ := usrRepo.GetRoleByName(ctx, user.RoleStudent)
	teacher, _ := usrRepo.CreateUser(ctx, user.User{Name: "Teacher", Username: "teacher", RoleID: teacherRole.ID, IsActive: true})
	student, _ := usrRepo.CreateUser(ctx, user.User{Name: "Student", Username: "student", RoleID: studentRole.ID, IsActive: true})

	class, err := classSvc.Create(ctx, teacher, classroom.NewClassRoom{Name: "Grade 9 Physics"})
	if err != nil {
		t.Fatalf("classSvc.Create() failed: %v", err)
	}
	if _, err = classSvc.Enroll(ctx, teacher, class.ID, student.ID); err != nil {
		t.Fatalf("classSvc.Enroll() failed: %v", err)
	}
	return testEnv{svc: svc, classSvc: classSvc, usrRepo: usrRepo, teacher: teacher, student: student, class: class}
}

func createAssignment(t *testing.T, env testEnv, due time.Time) homework.Assignment {
	t.Helper()
	a, err := env.svc.CreateAssignment(context.Background(), env.teacher, homework.NewAssignment{
		ClassID: env.class.ID,
		Title:   "Chapter 4 problems",
		DueDate: due,
	})
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return a
}

func TestService_Submit(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	a := createAssignment(t, env, time.Now().UTC().Add(24*time.Hour))

	s, err := env.svc.Submit(ctx, env.student, a.ID, homework.SubmitHomework{Content: "my answers"})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if s.Attempt != 1 || s.Status != homework.StatusSubmitted {
		t.Errorf("Submit() = attempt %d status %q, want 1 %q", s.Attempt, s.Status, homework.StatusSubmitted)
	}
	if s.Late {
		t.Error("Submit() before the due date flagged late")
	}

	// a second submission while the first is still active is rejected
	if _, err = env.svc.Submit(ctx, env.student, a.ID, homework.SubmitHomework{Content: "again"}); errors.Cause(err) != homework.ErrActiveSubmission {
		t.Errorf("Submit() error = %v, want %v", err, homework.ErrActiveSubmission)
	}

	// unenrolled students are rejected
	ctxStudentRole, _ := env.usrRepo.GetRoleByName(ctx, user.RoleStudent)
	outsider, _ := env.usrRepo.CreateUser(ctx, user.User{Name: "Out", Username: "outsider", RoleID: ctxStudentRole.ID, IsActive: true})
	if _, err = env.svc.Submit(ctx, outsider, a.ID, homework.SubmitHomework{Content: "hi"}); errors.Cause(err) != homework.ErrNotEnrolled {
		t.Errorf("Submit() error = %v, want %v", err, homework.ErrNotEnrolled)
	}
}

func TestService_Submit_lateFlag(t *testing.T) {
	env := setup(t)
	a := createAssignment(t, env, time.Now().UTC().Add(-time.Hour))

	s, err := env.svc.Submit(context.Background(), env.student, a.ID, homework.SubmitHomework{Content: "sorry"})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if !s.Late {
		t.Error("Submit() past the due date not flagged late")
	}
	if s.Status != homework.StatusSubmitted {
		t.Errorf("Submit() status = %q, want %q (late is accepted, not rejected)", s.Status, homework.StatusSubmitted)
	}
}

func TestService_GradeReturnResubmit(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	a := createAssignment(t, env, time.Now().UTC().Add(24*time.Hour))

	s, err := env.svc.Submit(ctx, env.student, a.ID, homework.SubmitHomework{Content: "attempt one"})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	// returning before grading is a validation error
	if _, err = env.svc.Return(ctx, env.teacher, s.ID); err == nil {
		t.Error("Return() on an ungraded submission succeeded")
	}

	graded, err := env.svc.Grade(ctx, env.teacher, s.ID, homework.GradeHomework{Score: 72, Feedback: "show your work"})
	if err != nil {
		t.Fatalf("Grade() failed: %v", err)
	}
	if graded.Status != homework.StatusGraded || graded.Score.Int != 72 || graded.GradedBy.Int != env.teacher.ID {
		t.Errorf("Grade() = %+v", graded)
	}

	// grading twice is a validation error
	if _, err = env.svc.Grade(ctx, env.teacher, s.ID, homework.GradeHomework{Score: 80}); err == nil {
		t.Error("Grade() on a graded submission succeeded")
	}

	returned, err := env.svc.Return(ctx, env.teacher, s.ID)
	if err != nil {
		t.Fatalf("Return() failed: %v", err)
	}
	if returned.Status != homework.StatusReturned {
		t.Errorf("Return() status = %q, want %q", returned.Status, homework.StatusReturned)
	}

	// resubmission bumps the attempt and preserves the graded record
	s2, err := env.svc.Submit(ctx, env.student, a.ID, homework.SubmitHomework{Content: "attempt two"})
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if s2.Attempt != 2 || s2.Status != homework.StatusResubmitted {
		t.Errorf("resubmit = attempt %d status %q, want 2 %q", s2.Attempt, s2.Status, homework.StatusResubmitted)
	}

	history, err := env.svc.ListOwnSubmissions(ctx, env.student)
	if err != nil {
		t.Fatalf("ListOwnSubmissions() failed: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("len(history) = %d, want 2", len(history))
	}
}

func TestService_permissions(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	a := createAssignment(t, env, time.Now().UTC().Add(24*time.Hour))

	s, err := env.svc.Submit(ctx, env.student, a.ID, homework.SubmitHomework{Content: "x"})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	// another teacher does not manage this class
	teacherRole, _ := env.usrRepo.GetRoleByName(ctx, user.RoleTeacher)
	other, _ := env.usrRepo.CreateUser(ctx, user.User{Name: "Other", Username: "other", RoleID: teacherRole.ID, IsActive: true})

	if _, err = env.svc.Grade(ctx, other, s.ID, homework.GradeHomework{Score: 50}); errors.Cause(err) != homework.ErrNotGrader {
		t.Errorf("Grade() error = %v, want %v", err, homework.ErrNotGrader)
	}
	if _, err = env.svc.ListSubmissions(ctx, other, a.ID); errors.Cause(err) != homework.ErrNotGrader {
		t.Errorf("ListSubmissions() error = %v, want %v", err, homework.ErrNotGrader)
	}
	if _, err = env.svc.CreateAssignment(ctx, other, homework.NewAssignment{ClassID: env.class.ID, Title: "t", DueDate: time.Now()}); errors.Cause(err) != homework.ErrNotGrader {
		t.Errorf("CreateAssignment() error = %v, want %v", err, homework.ErrNotGrader)
	}
}
