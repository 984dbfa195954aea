package article_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/article"
	"github.com/trezcool/shule/core/classroom"
	"github.com/trezcool/shule/core/user"
	dummydb "github.com/trezcool/shule/storage/database/dummy"
)

type testEnv struct {
	svc      *article.Service
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
	svc := article.NewService(dummydb.NewArticleRepository(db), classSvc)

	ctx := context.Background()
	teacherRole, _ := usrRepo.GetRoleByName(ctx, user.RoleTeacher)
	studentRole, _ := usrRepo.GetRoleByName(ctx, user.RoleStudent)
	teacher, _ := usrRepo.CreateUser(ctx, user.User{Name: "Teacher", Username: "teacher", RoleID: teacherRole.ID, IsActive: true})
	student, _ := usrRepo.CreateUser(ctx, user.User{Name: "Student", Username: "student", RoleID: studentRole.ID, IsActive: true})

	class, err := classSvc.Create(ctx, teacher, classroom.NewClassRoom{Name: "Grade 9 Literature"})
	if err != nil {
		t.Fatalf("classSvc.Create() failed: %v", err)
	}
	if _, err = classSvc.Enroll(ctx, teacher, class.ID, student.ID); err != nil {
		t.Fatalf("classSvc.Enroll() failed: %v", err)
	}
	return testEnv{svc: svc, classSvc: classSvc, usrRepo: usrRepo, teacher: teacher, student: student, class: class}
}

func TestService_CRUD(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	// students cannot author articles
	if _, err := env.svc.Create(ctx, env.student, article.NewArticle{Title: "t", Content: "c"}); errors.Cause(err) != article.ErrNotEditor {
		t.Errorf("Create() error = %v, want %v", err, article.ErrNotEditor)
	}

	a, err := env.svc.Create(ctx, env.teacher, article.NewArticle{
		Title: "The Road Not Taken", Content: "Two roads diverged...", Author: "Robert Frost",
		Category: "poetry", Difficulty: 3,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	up, err := env.svc.Update(ctx, env.teacher, a.ID, article.UpdateArticle{
		Title: a.Title, Content: a.Content, Author: a.Author, Category: a.Category, Difficulty: 4,
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if up.Difficulty != 4 {
		t.Errorf("Difficulty = %d, want 4", up.Difficulty)
	}

	if err = env.svc.Delete(ctx, env.student, a.ID); errors.Cause(err) != article.ErrNotEditor {
		t.Errorf("Delete() error = %v, want %v", err, article.ErrNotEditor)
	}
	if err = env.svc.Delete(ctx, env.teacher, a.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err = env.svc.GetByID(ctx, a.ID); errors.Cause(err) != article.ErrNotFound {
		t.Errorf("GetByID() error = %v, want %v", err, article.ErrNotFound)
	}
}

func TestService_Query(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	mk := func(title, author, category string, difficulty int) article.Article {
		a, err := env.svc.Create(ctx, env.teacher, article.NewArticle{
			Title: title, Content: "...", Author: author, Category: category, Difficulty: difficulty,
		})
		if err != nil {
			t.Fatalf("Create(%q) failed: %v", title, err)
		}
		return a
	}
	mk("The Road Not Taken", "Robert Frost", "poetry", 3)
	mk("Ozymandias", "Percy Shelley", "poetry", 4)
	mk("A Modest Proposal", "Jonathan Swift", "essay", 5)

	tests := []struct {
		name   string
		filter article.QueryFilter
		want   int
	}{
		{"all", article.QueryFilter{}, 3},
		{"search by title", article.QueryFilter{Search: "road"}, 1},
		{"search by author", article.QueryFilter{Search: "shelley"}, 1},
		{"category", article.QueryFilter{Category: "poetry"}, 2},
		{"difficulty", article.QueryFilter{Difficulty: 5}, 1},
		{"category + difficulty", article.QueryFilter{Category: "poetry", Difficulty: 3}, 1},
		{"no match", article.QueryFilter{Search: "lol"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.svc.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len(got) = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestService_Recitations(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	a, err := env.svc.Create(ctx, env.teacher, article.NewArticle{Title: "Ozymandias", Content: "..."})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	r, err := env.svc.AssignRecitation(ctx, env.teacher, article.NewRecitation{
		StudentID: env.student.ID, ArticleID: a.ID, ClassID: env.class.ID,
	})
	if err != nil {
		t.Fatalf("AssignRecitation() failed: %v", err)
	}
	if r.Status != article.RecitationAssigned || !r.ArticleID.Valid || r.ArticleID.Int != a.ID {
		t.Errorf("recitation = %+v", r)
	}

	// free recitation has no article reference
	free, err := env.svc.AssignRecitation(ctx, env.teacher, article.NewRecitation{
		StudentID: env.student.ID, ClassID: env.class.ID,
	})
	if err != nil {
		t.Fatalf("AssignRecitation() failed: %v", err)
	}
	if free.ArticleID.Valid {
		t.Errorf("free recitation carries ArticleID %v", free.ArticleID)
	}

	// students complete their own
	done, err := env.svc.CompleteRecitation(ctx, env.student, r.ID)
	if err != nil {
		t.Fatalf("CompleteRecitation() failed: %v", err)
	}
	if done.Status != article.RecitationCompleted || !done.CompletedAt.Valid {
		t.Errorf("completed = %+v", done)
	}

	// completing twice is a validation error
	if _, err = env.svc.CompleteRecitation(ctx, env.student, r.ID); err == nil {
		t.Error("CompleteRecitation() on a completed record succeeded")
	} else if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
		t.Errorf("CompleteRecitation() error = %T, want *core.ValidationError", errors.Cause(err))
	}

	// another student cannot complete it
	studentRole, _ := env.usrRepo.GetRoleByName(ctx, user.RoleStudent)
	other, _ := env.usrRepo.CreateUser(ctx, user.User{Name: "Other", Username: "other", RoleID: studentRole.ID, IsActive: true})
	if _, err = env.svc.CompleteRecitation(ctx, other, free.ID); errors.Cause(err) != article.ErrNotEditor {
		t.Errorf("CompleteRecitation() error = %v, want %v", err, article.ErrNotEditor)
	}

	// visibility: students see their own, the teacher sees the class
	own, err := env.svc.QueryRecitations(ctx, env.student, 0)
	if err != nil {
		t.Fatalf("QueryRecitations() failed: %v", err)
	}
	if len(own) != 2 {
		t.Errorf("len(own) = %d, want 2", len(own))
	}
	classRecs, err := env.svc.QueryRecitations(ctx, env.teacher, env.class.ID)
	if err != nil {
		t.Fatalf("QueryRecitations() failed: %v", err)
	}
	if len(classRecs) != 2 {
		t.Errorf("len(classRecs) = %d, want 2", len(classRecs))
	}

	// unenrolled students cannot be assigned
	if _, err = env.svc.AssignRecitation(ctx, env.teacher, article.NewRecitation{
		StudentID: other.ID, ClassID: env.class.ID,
	}); errors.Cause(err) != article.ErrNotEnrolled {
		t.Errorf("AssignRecitation() error = %v, want %v", err, article.ErrNotEnrolled)
	}
}
