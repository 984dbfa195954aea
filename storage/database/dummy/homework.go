package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/shule/core/homework"
)

type homeworkRepository struct {
	db *DB
}

var _ homework.Repository = (*homeworkRepository)(nil) // interface compliance check

func NewHomeworkRepository(db *DB) *homeworkRepository {
	return &homeworkRepository{db: db}
}

func (repo *homeworkRepository) CreateAssignment(_ context.Context, a homework.Assignment) (homework.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	a.ID = repo.db.nextID("assignments")
	repo.db.assignments[a.ID] = &a
	return a, nil
}

func (repo *homeworkRepository) GetAssignmentByID(_ context.Context, id int) (homework.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if a, ok := repo.db.assignments[id]; ok {
		return *a, nil
	}
	return homework.Assignment{}, homework.ErrAssignmentNotFound
}

func (repo *homeworkRepository) QueryAssignmentsByClass(_ context.Context, classIDs ...int) ([]homework.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	wanted := make(map[int]struct{}, len(classIDs))
	for _, id := range classIDs {
		wanted[id] = struct{}{}
	}
	assignments := []homework.Assignment{}
	for _, a := range repo.db.assignments {
		if _, ok := wanted[a.ClassID]; ok {
			assignments = append(assignments, *a)
		}
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].DueDate.Before(assignments[j].DueDate) })
	return assignments, nil
}

func (repo *homeworkRepository) CreateSubmission(_ context.Context, s homework.Submission) (homework.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, existing := range repo.db.submissions {
		if existing.AssignmentID == s.AssignmentID && existing.StudentID == s.StudentID && existing.Attempt == s.Attempt {
			return homework.Submission{}, homework.ErrActiveSubmission
		}
	}
	s.ID = repo.db.nextID("assignment_submissions")
	repo.db.submissions[s.ID] = &s
	return s, nil
}

func (repo *homeworkRepository) GetSubmissionByID(_ context.Context, id int) (homework.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.submissions[id]; ok {
		return *s, nil
	}
	return homework.Submission{}, homework.ErrSubmissionNotFound
}

func (repo *homeworkRepository) GetLatestSubmission(_ context.Context, assignmentID, studentID int) (homework.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var latest *homework.Submission
	for _, s := range repo.db.submissions {
		if s.AssignmentID != assignmentID || s.StudentID != studentID {
			continue
		}
		if latest == nil || s.Attempt > latest.Attempt {
			latest = s
		}
	}
	if latest == nil {
		return homework.Submission{}, homework.ErrSubmissionNotFound
	}
	return *latest, nil
}

func (repo *homeworkRepository) QuerySubmissionsByAssignment(_ context.Context, assignmentID int) ([]homework.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	submissions := []homework.Submission{}
	for _, s := range repo.db.submissions {
		if s.AssignmentID == assignmentID {
			submissions = append(submissions, *s)
		}
	}
	sort.Slice(submissions, func(i, j int) bool {
		if submissions[i].StudentID != submissions[j].StudentID {
			return submissions[i].StudentID < submissions[j].StudentID
		}
		return submissions[i].Attempt < submissions[j].Attempt
	})
	return submissions, nil
}

func (repo *homeworkRepository) QuerySubmissionsByStudent(_ context.Context, studentID int) ([]homework.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	submissions := []homework.Submission{}
	for _, s := range repo.db.submissions {
		if s.StudentID == studentID {
			submissions = append(submissions, *s)
		}
	}
	sort.Slice(submissions, func(i, j int) bool { return submissions[i].SubmittedAt.After(submissions[j].SubmittedAt) })
	return submissions, nil
}

func (repo *homeworkRepository) UpdateSubmission(_ context.Context, s homework.Submission) (homework.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.submissions[s.ID]; !ok {
		return homework.Submission{}, homework.ErrSubmissionNotFound
	}
	repo.db.submissions[s.ID] = &s
	return s, nil
}
