package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/homework"
)

const (
	selectAssignment = `
SELECT id, class_id, title, description, due_date, created_by, created_at
FROM assignments`

	selectSubmission = `
SELECT id, assignment_id, student_id, attempt, content, status, late,
       score, feedback, graded_by, graded_at, submitted_at
FROM assignment_submissions`

	submissionUniqueConstraint = "assignment_submissions_attempt_key"
)

type homeworkRepository struct {
	db *sqlx.DB
}

var _ homework.Repository = (*homeworkRepository)(nil)

func NewHomeworkRepository(db *sqlx.DB) *homeworkRepository {
	return &homeworkRepository{db: db}
}

func (repo *homeworkRepository) CreateAssignment(ctx context.Context, a homework.Assignment) (homework.Assignment, error) {
	err := repo.db.QueryRowContext(ctx, `
INSERT INTO assignments (class_id, title, description, due_date, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`,
		a.ClassID, a.Title, a.Description, a.DueDate, a.CreatedBy, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return homework.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo *homeworkRepository) GetAssignmentByID(ctx context.Context, id int) (homework.Assignment, error) {
	var a homework.Assignment
	if err := repo.db.GetContext(ctx, &a, selectAssignment+" WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return homework.Assignment{}, homework.ErrAssignmentNotFound
		}
		return homework.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	return a, nil
}

func (repo *homeworkRepository) QueryAssignmentsByClass(ctx context.Context, classIDs ...int) ([]homework.Assignment, error) {
	if len(classIDs) == 0 {
		return []homework.Assignment{}, nil
	}
	query, args, err := sqlx.In(selectAssignment+" WHERE class_id IN (?) ORDER BY due_date", classIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building assignments query")
	}
	assignments := []homework.Assignment{}
	if err = repo.db.SelectContext(ctx, &assignments, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	return assignments, nil
}

func (repo *homeworkRepository) CreateSubmission(ctx context.Context, s homework.Submission) (homework.Submission, error) {
	err := repo.db.QueryRowContext(ctx, `
INSERT INTO assignment_submissions (assignment_id, student_id, attempt, content, status, late, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`,
		s.AssignmentID, s.StudentID, s.Attempt, s.Content, s.Status, s.Late, s.SubmittedAt,
	).Scan(&s.ID)
	if err != nil {
		if isUniqueViolation(err, submissionUniqueConstraint) {
			return homework.Submission{}, homework.ErrActiveSubmission
		}
		return homework.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return s, nil
}

func (repo *homeworkRepository) GetSubmissionByID(ctx context.Context, id int) (homework.Submission, error) {
	var s homework.Submission
	if err := repo.db.GetContext(ctx, &s, selectSubmission+" WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return homework.Submission{}, homework.ErrSubmissionNotFound
		}
		return homework.Submission{}, errors.Wrap(err, "getting submission")
	}
	return s, nil
}

func (repo *homeworkRepository) GetLatestSubmission(ctx context.Context, assignmentID, studentID int) (homework.Submission, error) {
	var s homework.Submission
	err := repo.db.GetContext(ctx, &s,
		selectSubmission+" WHERE assignment_id = $1 AND student_id = $2 ORDER BY attempt DESC LIMIT 1",
		assignmentID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return homework.Submission{}, homework.ErrSubmissionNotFound
		}
		return homework.Submission{}, errors.Wrap(err, "getting latest submission")
	}
	return s, nil
}

func (repo *homeworkRepository) QuerySubmissionsByAssignment(ctx context.Context, assignmentID int) ([]homework.Submission, error) {
	submissions := []homework.Submission{}
	err := repo.db.SelectContext(ctx, &submissions,
		selectSubmission+" WHERE assignment_id = $1 ORDER BY student_id, attempt", assignmentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	return submissions, nil
}

func (repo *homeworkRepository) QuerySubmissionsByStudent(ctx context.Context, studentID int) ([]homework.Submission, error) {
	submissions := []homework.Submission{}
	err := repo.db.SelectContext(ctx, &submissions,
		selectSubmission+" WHERE student_id = $1 ORDER BY submitted_at DESC", studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions by student")
	}
	return submissions, nil
}

func (repo *homeworkRepository) UpdateSubmission(ctx context.Context, s homework.Submission) (homework.Submission, error) {
	res, err := repo.db.ExecContext(ctx, `
UPDATE assignment_submissions
SET status = $2, score = $3, feedback = $4, graded_by = $5, graded_at = $6
WHERE id = $1`,
		s.ID, s.Status, s.Score, s.Feedback, s.GradedBy, s.GradedAt,
	)
	if err != nil {
		return homework.Submission{}, errors.Wrap(err, "updating submission")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return homework.Submission{}, homework.ErrSubmissionNotFound
	}
	return s, nil
}
