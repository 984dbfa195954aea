package article

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
)

// Recitation statuses.
const (
	RecitationAssigned  = "assigned"
	RecitationCompleted = "completed"
)

type Article struct {
	ID         int       `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	Content    string    `db:"content" json:"content"`
	Author     string    `db:"author" json:"author"`
	Category   string    `db:"category" json:"category"`
	Difficulty int       `db:"difficulty" json:"difficulty"`
	CreatedBy  int       `db:"created_by" json:"created_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"` // UTC
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"` // UTC
}

// RecitationRecord tracks one student's recitation of an article. ArticleID
// is nullable: a "free recitation" is not tied to any tracked article.
type RecitationRecord struct {
	ID          int       `db:"id" json:"id"`
	StudentID   int       `db:"student_id" json:"student_id"`
	ArticleID   null.Int  `db:"article_id" json:"article_id"`
	ClassID     int       `db:"class_id" json:"class_id"`
	Status      string    `db:"status" json:"status"`
	CompletedAt null.Time `db:"completed_at" json:"completed_at"` // UTC
	CreatedAt   time.Time `db:"created_at" json:"created_at"`     // UTC
}

// NewArticle contains information needed to create an Article.
type NewArticle struct {
	Title      string `json:"title" validate:"required"`
	Content    string `json:"content" validate:"required"`
	Author     string `json:"author"`
	Category   string `json:"category"`
	Difficulty int    `json:"difficulty" validate:"omitempty,min=1,max=5"`
}

func (na *NewArticle) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Author = core.CleanString(na.Author)
	na.Category = core.CleanString(na.Category, true /* lower */)
	return validate.Struct(na)
}

// UpdateArticle defines what information may be provided to modify an Article.
type UpdateArticle struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Author     string `json:"author"`
	Category   string `json:"category"`
	Difficulty int    `json:"difficulty" validate:"omitempty,min=1,max=5"`
}

func (ua *UpdateArticle) Validate(validate *validator.Validate, orig Article) error {
	if title := core.CleanString(ua.Title); title != "" {
		ua.Title = title
	} else {
		ua.Title = orig.Title
	}
	if ua.Content == "" {
		ua.Content = orig.Content
	}
	if author := core.CleanString(ua.Author); author != "" {
		ua.Author = author
	} else {
		ua.Author = orig.Author
	}
	if category := core.CleanString(ua.Category, true /* lower */); category != "" {
		ua.Category = category
	} else {
		ua.Category = orig.Category
	}
	if ua.Difficulty == 0 {
		ua.Difficulty = orig.Difficulty
	}
	return validate.Struct(ua)
}

// NewRecitation assigns an article (or a free recitation) to a student.
type NewRecitation struct {
	StudentID int `json:"student_id" validate:"required"`
	ArticleID int `json:"article_id"` // 0 means free recitation
	ClassID   int `json:"class_id" validate:"required"`
}

func (nr NewRecitation) Validate(validate *validator.Validate) error {
	return validate.Struct(nr)
}

type QueryFilter struct {
	Search     string `query:"search"`
	Category   string `query:"category"`
	Difficulty int    `query:"difficulty"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Category == "" && qf.Difficulty == 0
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
}
