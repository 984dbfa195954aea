package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/article"
)

type articleRepository struct {
	db *DB
}

var _ article.Repository = (*articleRepository)(nil) // interface compliance check

func NewArticleRepository(db *DB) *articleRepository {
	return &articleRepository{db: db}
}

func (repo *articleRepository) CreateArticle(_ context.Context, a article.Article) (article.Article, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	a.ID = repo.db.nextID("articles")
	repo.db.articles[a.ID] = &a
	return a, nil
}

func (repo *articleRepository) GetArticleByID(_ context.Context, id int) (article.Article, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if a, ok := repo.db.articles[id]; ok {
		return *a, nil
	}
	return article.Article{}, article.ErrNotFound
}

func (repo *articleRepository) FilterArticles(_ context.Context, filter article.QueryFilter, _ ...core.DBOrdering) ([]article.Article, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	articles := []article.Article{}
	search := strings.ToLower(filter.Search)
	for _, a := range repo.db.articles {
		if search != "" &&
			!strings.Contains(strings.ToLower(a.Title), search) &&
			!strings.Contains(strings.ToLower(a.Author), search) {
			continue
		}
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		if filter.Difficulty != 0 && a.Difficulty != filter.Difficulty {
			continue
		}
		articles = append(articles, *a)
	}
	sort.Slice(articles, func(i, j int) bool { return articles[i].ID < articles[j].ID })
	return articles, nil
}

func (repo *articleRepository) UpdateArticle(_ context.Context, a article.Article) (article.Article, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.articles[a.ID]; !ok {
		return article.Article{}, article.ErrNotFound
	}
	repo.db.articles[a.ID] = &a
	return a, nil
}

func (repo *articleRepository) DeleteArticle(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.articles, id)
	return nil
}

func (repo *articleRepository) CreateRecitation(_ context.Context, r article.RecitationRecord) (article.RecitationRecord, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	r.ID = repo.db.nextID("recitation_records")
	repo.db.recitations[r.ID] = &r
	return r, nil
}

func (repo *articleRepository) GetRecitationByID(_ context.Context, id int) (article.RecitationRecord, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if r, ok := repo.db.recitations[id]; ok {
		return *r, nil
	}
	return article.RecitationRecord{}, article.ErrRecitationNotFound
}

func (repo *articleRepository) QueryRecitationsByStudent(_ context.Context, studentID int) ([]article.RecitationRecord, error) {
	return repo.queryRecitations(func(r article.RecitationRecord) bool { return r.StudentID == studentID })
}

func (repo *articleRepository) QueryRecitationsByClass(_ context.Context, classID int) ([]article.RecitationRecord, error) {
	return repo.queryRecitations(func(r article.RecitationRecord) bool { return r.ClassID == classID })
}

func (repo *articleRepository) queryRecitations(match func(article.RecitationRecord) bool) ([]article.RecitationRecord, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	records := []article.RecitationRecord{}
	for _, r := range repo.db.recitations {
		if match(*r) {
			records = append(records, *r)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID > records[j].ID })
	return records, nil
}

func (repo *articleRepository) UpdateRecitation(_ context.Context, r article.RecitationRecord) (article.RecitationRecord, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.recitations[r.ID]; !ok {
		return article.RecitationRecord{}, article.ErrRecitationNotFound
	}
	repo.db.recitations[r.ID] = &r
	return r, nil
}
