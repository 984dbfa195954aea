package homework

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/classroom"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrAssignmentNotFound = core.NewNotFoundError("assignment not found")
	ErrSubmissionNotFound = core.NewNotFoundError("submission not found")
	ErrNotEnrolled        = core.NewPermissionError("student is not enrolled in this class")
	ErrNotGrader          = core.NewPermissionError("only the assignment's class teacher or an admin may do this")

	// ErrActiveSubmission is returned when a non-returned submission already
	// exists for this (assignment, student) at the current attempt.
	ErrActiveSubmission = core.NewConflictError("an active submission already exists; wait for it to be returned")

	errNotGraded = errors.New("only graded submissions can be returned")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id int) (Assignment, error)
		QueryAssignmentsByClass(ctx context.Context, classIDs ...int) ([]Assignment, error)
		// CreateSubmission returns ErrActiveSubmission when the store rejects a
		// duplicate (assignment, student, attempt) triple.
		CreateSubmission(ctx context.Context, s Submission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id int) (Submission, error)
		// GetLatestSubmission returns the highest-attempt submission for the
		// (assignment, student) pair, or ErrSubmissionNotFound.
		GetLatestSubmission(ctx context.Context, assignmentID, studentID int) (Submission, error)
		QuerySubmissionsByAssignment(ctx context.Context, assignmentID int) ([]Submission, error)
		QuerySubmissionsByStudent(ctx context.Context, studentID int) ([]Submission, error)
		UpdateSubmission(ctx context.Context, s Submission) (Submission, error)
	}

	// ClassDirectory is the slice of the classroom service this package needs.
	ClassDirectory interface {
		GetByID(ctx context.Context, id int) (classroom.ClassRoom, error)
		IsEnrolled(ctx context.Context, classID, studentID int) (bool, error)
		QueryForUser(ctx context.Context, actor user.User) ([]classroom.ClassRoom, error)
	}

	Service struct {
		repo    Repository
		classes ClassDirectory
	}
)

func NewService(repo Repository, classes ClassDirectory) *Service {
	return &Service{repo: repo, classes: classes}
}

// CreateAssignment creates an assignment for a class the actor manages.
func (svc *Service) CreateAssignment(ctx context.Context, actor user.User, na NewAssignment) (Assignment, error) {
	class, err := svc.classes.GetByID(ctx, na.ClassID)
	if err != nil {
		return Assignment{}, err
	}
	if !classroom.CanManage(actor, class) {
		return Assignment{}, ErrNotGrader
	}

	a := Assignment{
		ClassID:     class.ID,
		Title:       na.Title,
		Description: na.Description,
		DueDate:     na.DueDate.UTC(),
		CreatedBy:   actor.ID,
		CreatedAt:   nowFunc().UTC(),
	}
	return svc.repo.CreateAssignment(ctx, a)
}

func (svc *Service) GetAssignment(ctx context.Context, id int) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

// QueryAssignments lists assignments of the classes visible to the actor.
func (svc *Service) QueryAssignments(ctx context.Context, actor user.User) ([]Assignment, error) {
	classes, err := svc.classes.QueryForUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return []Assignment{}, nil
	}
	ids := make([]int, 0, len(classes))
	for _, class := range classes {
		ids = append(ids, class.ID)
	}
	return svc.repo.QueryAssignmentsByClass(ctx, ids...)
}

// Submit records a student's submission. A submission past the due date is
// accepted but flagged late. Resubmission is only possible once the previous
// attempt has been returned; the attempt number then increments and the prior
// graded record is preserved.
func (svc *Service) Submit(ctx context.Context, student user.User, assignmentID int, sh SubmitHomework) (Submission, error) {
	assignment, err := svc.repo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return Submission{}, err
	}
	enrolled, err := svc.classes.IsEnrolled(ctx, assignment.ClassID, student.ID)
	if err != nil {
		return Submission{}, errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return Submission{}, ErrNotEnrolled
	}

	attempt := 1
	status := StatusSubmitted
	latest, err := svc.repo.GetLatestSubmission(ctx, assignmentID, student.ID)
	switch {
	case err == nil:
		if latest.Status != StatusReturned {
			return Submission{}, ErrActiveSubmission
		}
		attempt = latest.Attempt + 1
		status = StatusResubmitted
	case errors.Cause(err) == ErrSubmissionNotFound:
		// first attempt
	default:
		return Submission{}, err
	}

	now := nowFunc().UTC()
	s := Submission{
		AssignmentID: assignmentID,
		StudentID:    student.ID,
		Attempt:      attempt,
		Content:      sh.Content,
		Status:       status,
		Late:         now.After(assignment.DueDate),
		SubmittedAt:  now,
	}
	return svc.repo.CreateSubmission(ctx, s)
}

// Grade transitions a submission to graded and stamps the grade fields.
func (svc *Service) Grade(ctx context.Context, grader user.User, submissionID int, gh GradeHomework) (Submission, error) {
	s, err := svc.getManagedSubmission(ctx, grader, submissionID)
	if err != nil {
		return Submission{}, err
	}
	if !s.Gradable() {
		return Submission{}, core.NewValidationError(
			errors.Errorf("cannot grade a submission in status %q", s.Status))
	}

	s.Status = StatusGraded
	s.Score = null.IntFrom(gh.Score)
	s.Feedback = null.NewString(gh.Feedback, gh.Feedback != "")
	s.GradedBy = null.IntFrom(grader.ID)
	s.GradedAt = null.TimeFrom(nowFunc().UTC())
	return svc.repo.UpdateSubmission(ctx, s)
}

// Return transitions a graded submission to returned, permitting the student
// to resubmit.
func (svc *Service) Return(ctx context.Context, grader user.User, submissionID int) (Submission, error) {
	s, err := svc.getManagedSubmission(ctx, grader, submissionID)
	if err != nil {
		return Submission{}, err
	}
	if s.Status != StatusGraded {
		return Submission{}, core.NewValidationError(errNotGraded)
	}

	s.Status = StatusReturned
	return svc.repo.UpdateSubmission(ctx, s)
}

// ListSubmissions returns all submissions for an assignment the actor manages.
func (svc *Service) ListSubmissions(ctx context.Context, actor user.User, assignmentID int) ([]Submission, error) {
	assignment, err := svc.repo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	class, err := svc.classes.GetByID(ctx, assignment.ClassID)
	if err != nil {
		return nil, err
	}
	if !classroom.CanManage(actor, class) {
		return nil, ErrNotGrader
	}
	return svc.repo.QuerySubmissionsByAssignment(ctx, assignmentID)
}

// ListOwnSubmissions returns the student's own submission history.
func (svc *Service) ListOwnSubmissions(ctx context.Context, student user.User) ([]Submission, error) {
	return svc.repo.QuerySubmissionsByStudent(ctx, student.ID)
}

func (svc *Service) getManagedSubmission(ctx context.Context, actor user.User, submissionID int) (Submission, error) {
	s, err := svc.repo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	assignment, err := svc.repo.GetAssignmentByID(ctx, s.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	class, err := svc.classes.GetByID(ctx, assignment.ClassID)
	if err != nil {
		return Submission{}, err
	}
	if !classroom.CanManage(actor, class) {
		return Submission{}, ErrNotGrader
	}
	return s, nil
}
