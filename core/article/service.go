package article

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
	ErrNotFound           = core.NewNotFoundError("article not found")
	ErrRecitationNotFound = core.NewNotFoundError("recitation record not found")
	ErrNotEditor          = core.NewPermissionError("only teachers or admins may do this")
	ErrNotEnrolled        = core.NewPermissionError("student is not enrolled in this class")

	errAlreadyCompleted = errors.New("recitation is already completed")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateArticle(ctx context.Context, a Article) (Article, error)
		GetArticleByID(ctx context.Context, id int) (Article, error)
		FilterArticles(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Article, error)
		UpdateArticle(ctx context.Context, a Article) (Article, error)
		DeleteArticle(ctx context.Context, id int) error
		CreateRecitation(ctx context.Context, r RecitationRecord) (RecitationRecord, error)
		GetRecitationByID(ctx context.Context, id int) (RecitationRecord, error)
		QueryRecitationsByStudent(ctx context.Context, studentID int) ([]RecitationRecord, error)
		QueryRecitationsByClass(ctx context.Context, classID int) ([]RecitationRecord, error)
		UpdateRecitation(ctx context.Context, r RecitationRecord) (RecitationRecord, error)
	}

	// ClassDirectory is the slice of the classroom service this package needs.
	ClassDirectory interface {
		GetByID(ctx context.Context, id int) (classroom.ClassRoom, error)
		IsEnrolled(ctx context.Context, classID, studentID int) (bool, error)
	}

	Service struct {
		repo    Repository
		classes ClassDirectory
	}
)

func NewService(repo Repository, classes ClassDirectory) *Service {
	return &Service{repo: repo, classes: classes}
}

func (svc *Service) Create(ctx context.Context, actor user.User, na NewArticle) (Article, error) {
	if !actor.IsTeacher() && !actor.IsAdmin() {
		return Article{}, ErrNotEditor
	}
	now := nowFunc().UTC()
	a := Article{
		Title:      na.Title,
		Content:    na.Content,
		Author:     na.Author,
		Category:   na.Category,
		Difficulty: na.Difficulty,
		CreatedBy:  actor.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateArticle(ctx, a)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Article, error) {
	return svc.repo.GetArticleByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Article, error) {
	return svc.repo.FilterArticles(ctx, filter, orderings...)
}

func (svc *Service) Update(ctx context.Context, actor user.User, id int, ua UpdateArticle) (Article, error) {
	if !actor.IsTeacher() && !actor.IsAdmin() {
		return Article{}, ErrNotEditor
	}
	a, err := svc.repo.GetArticleByID(ctx, id)
	if err != nil {
		return Article{}, err
	}

	a.Title = ua.Title
	a.Content = ua.Content
	a.Author = ua.Author
	a.Category = ua.Category
	a.Difficulty = ua.Difficulty
	a.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateArticle(ctx, a)
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id int) error {
	if !actor.IsTeacher() && !actor.IsAdmin() {
		return ErrNotEditor
	}
	if _, err := svc.repo.GetArticleByID(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteArticle(ctx, id)
}

// AssignRecitation creates a recitation record for an enrolled student.
// ArticleID 0 records a free recitation, not tied to a tracked article.
func (svc *Service) AssignRecitation(ctx context.Context, actor user.User, nr NewRecitation) (RecitationRecord, error) {
	class, err := svc.classes.GetByID(ctx, nr.ClassID)
	if err != nil {
		return RecitationRecord{}, err
	}
	if !classroom.CanManage(actor, class) {
		return RecitationRecord{}, ErrNotEditor
	}
	enrolled, err := svc.classes.IsEnrolled(ctx, nr.ClassID, nr.StudentID)
	if err != nil {
		return RecitationRecord{}, errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return RecitationRecord{}, ErrNotEnrolled
	}
	if nr.ArticleID != 0 {
		if _, err = svc.repo.GetArticleByID(ctx, nr.ArticleID); err != nil {
			return RecitationRecord{}, err
		}
	}

	r := RecitationRecord{
		StudentID: nr.StudentID,
		ArticleID: null.NewInt(nr.ArticleID, nr.ArticleID != 0),
		ClassID:   nr.ClassID,
		Status:    RecitationAssigned,
		CreatedAt: nowFunc().UTC(),
	}
	return svc.repo.CreateRecitation(ctx, r)
}

// CompleteRecitation marks a recitation completed. The student themselves,
// the class teacher or an admin may do this.
func (svc *Service) CompleteRecitation(ctx context.Context, actor user.User, id int) (RecitationRecord, error) {
	r, err := svc.repo.GetRecitationByID(ctx, id)
	if err != nil {
		return RecitationRecord{}, err
	}
	if actor.ID != r.StudentID {
		class, err := svc.classes.GetByID(ctx, r.ClassID)
		if err != nil {
			return RecitationRecord{}, err
		}
		if !classroom.CanManage(actor, class) {
			return RecitationRecord{}, ErrNotEditor
		}
	}
	if r.Status == RecitationCompleted {
		return RecitationRecord{}, core.NewValidationError(errAlreadyCompleted)
	}

	r.Status = RecitationCompleted
	r.CompletedAt = null.TimeFrom(nowFunc().UTC())
	return svc.repo.UpdateRecitation(ctx, r)
}

// QueryRecitations lists recitations: students see their own, teachers and
// admins see a class's records.
func (svc *Service) QueryRecitations(ctx context.Context, actor user.User, classID int) ([]RecitationRecord, error) {
	if actor.IsStudent() {
		return svc.repo.QueryRecitationsByStudent(ctx, actor.ID)
	}
	class, err := svc.classes.GetByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if !classroom.CanManage(actor, class) {
		return nil, ErrNotEditor
	}
	return svc.repo.QueryRecitationsByClass(ctx, classID)
}
