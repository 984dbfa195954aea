package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/article"
)

const (
	selectArticle = `
SELECT id, title, content, author, category, difficulty, created_by, created_at, updated_at
FROM articles`

	selectRecitation = `
SELECT id, student_id, article_id, class_id, status, completed_at, created_at
FROM recitation_records`
)

var articleOrderings = map[string]string{
	"title":      "title",
	"difficulty": "difficulty",
	"created_at": "created_at",
}

type articleRepository struct {
	db *sqlx.DB
}

var _ article.Repository = (*articleRepository)(nil)

func NewArticleRepository(db *sqlx.DB) *articleRepository {
	return &articleRepository{db: db}
}

func (repo *articleRepository) CreateArticle(ctx context.Context, a article.Article) (article.Article, error) {
	err := repo.db.QueryRowContext(ctx, `
INSERT INTO articles (title, content, author, category, difficulty, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`,
		a.Title, a.Content, a.Author, a.Category, a.Difficulty, a.CreatedBy, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		return article.Article{}, errors.Wrap(err, "inserting article")
	}
	return a, nil
}

func (repo *articleRepository) GetArticleByID(ctx context.Context, id int) (article.Article, error) {
	var a article.Article
	if err := repo.db.GetContext(ctx, &a, selectArticle+" WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return article.Article{}, article.ErrNotFound
		}
		return article.Article{}, errors.Wrap(err, "getting article")
	}
	return a, nil
}

func (repo *articleRepository) FilterArticles(ctx context.Context, filter article.QueryFilter, orderings ...core.DBOrdering) ([]article.Article, error) {
	query := selectArticle + " WHERE 1=1"
	var args []interface{}

	next := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Search != "" {
		p := next("%" + filter.Search + "%")
		query += " AND (title ILIKE " + p + " OR author ILIKE " + p + ")"
	}
	if filter.Category != "" {
		query += " AND category = " + next(filter.Category)
	}
	if filter.Difficulty != 0 {
		query += " AND difficulty = " + next(filter.Difficulty)
	}
	query += orderBy(orderings, articleOrderings, "created_at DESC")

	articles := []article.Article{}
	if err := repo.db.SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering articles")
	}
	return articles, nil
}

func (repo *articleRepository) UpdateArticle(ctx context.Context, a article.Article) (article.Article, error) {
	res, err := repo.db.ExecContext(ctx, `
UPDATE articles
SET title = $2, content = $3, author = $4, category = $5, difficulty = $6, updated_at = $7
WHERE id = $1`,
		a.ID, a.Title, a.Content, a.Author, a.Category, a.Difficulty, a.UpdatedAt,
	)
	if err != nil {
		return article.Article{}, errors.Wrap(err, "updating article")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return article.Article{}, article.ErrNotFound
	}
	return a, nil
}

func (repo *articleRepository) DeleteArticle(ctx context.Context, id int) error {
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM articles WHERE id = $1", id); err != nil {
		return errors.Wrap(err, "deleting article")
	}
	return nil
}

func (repo *articleRepository) CreateRecitation(ctx context.Context, r article.RecitationRecord) (article.RecitationRecord, error) {
	err := repo.db.QueryRowContext(ctx, `
INSERT INTO recitation_records (student_id, article_id, class_id, status, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`,
		r.StudentID, r.ArticleID, r.ClassID, r.Status, r.CreatedAt,
	).Scan(&r.ID)
	if err != nil {
		return article.RecitationRecord{}, errors.Wrap(err, "inserting recitation")
	}
	return r, nil
}

func (repo *articleRepository) GetRecitationByID(ctx context.Context, id int) (article.RecitationRecord, error) {
	var r article.RecitationRecord
	if err := repo.db.GetContext(ctx, &r, selectRecitation+" WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return article.RecitationRecord{}, article.ErrRecitationNotFound
		}
		return article.RecitationRecord{}, errors.Wrap(err, "getting recitation")
	}
	return r, nil
}

func (repo *articleRepository) QueryRecitationsByStudent(ctx context.Context, studentID int) ([]article.RecitationRecord, error) {
	records := []article.RecitationRecord{}
	err := repo.db.SelectContext(ctx, &records, selectRecitation+" WHERE student_id = $1 ORDER BY created_at DESC", studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying recitations by student")
	}
	return records, nil
}

func (repo *articleRepository) QueryRecitationsByClass(ctx context.Context, classID int) ([]article.RecitationRecord, error) {
	records := []article.RecitationRecord{}
	err := repo.db.SelectContext(ctx, &records, selectRecitation+" WHERE class_id = $1 ORDER BY created_at DESC", classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying recitations by class")
	}
	return records, nil
}

func (repo *articleRepository) UpdateRecitation(ctx context.Context, r article.RecitationRecord) (article.RecitationRecord, error) {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE recitation_records SET status = $2, completed_at = $3 WHERE id = $1",
		r.ID, r.Status, r.CompletedAt,
	)
	if err != nil {
		return article.RecitationRecord{}, errors.Wrap(err, "updating recitation")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return article.RecitationRecord{}, article.ErrRecitationNotFound
	}
	return r, nil
}
