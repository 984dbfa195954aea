package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/classroom"
	"github.com/trezcool/shule/core/user"
	dummydb "github.com/trezcool/shule/storage/database/dummy"
)

type testEnv struct {
	db       *dummydb.DB
	svc      *attendance.Service
	classSvc *classroom.Service
	usrRepo  user.Repository
}

type mailServiceNoop struct{}

func (mailServiceNoop) SendMessages(...*core.EmailMessage) {}

func testConfig() *core.Config {
	return &core.Config{
		AppName:         "Shule",
		TestMode:        true,
		SecretKey:       []byte("secret"),
		FrontendBaseURL: "http://localhost:8080",
		Attendance: core.AttendanceConfig{
			DefaultSessionTTL: 15 * time.Minute,
			MaxSessionTTL:     2 * time.Hour,
		},
	}
}

func setup(t *testing.T) testEnv {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	conf := testConfig()
	usrRepo := dummydb.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, mailServiceNoop{}, conf)
	classSvc := classroom.NewService(dummydb.NewClassRoomRepository(db), usrSvc)
	svc := attendance.NewService(dummydb.NewAttendanceRepository(db), classSvc, conf)
	return testEnv{db: db, svc: svc, classSvc: classSvc, usrRepo: usrRepo}
}

func createUser(t *testing.T, repo user.Repository, uname, role string) user.User {
	t.Helper()
	ctx := context.Background()
	r, err := repo.GetRoleByName(ctx, role)
	if err != nil {
		t.Fatalf("GetRoleByName(%q) failed: %v", role, err)
	}
	usr, err := repo.CreateUser(ctx, user.User{
		Name:     uname,
		Username: uname,
		Email:    uname + "@test.cd",
		RoleID:   r.ID,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateUser(%q) failed: %v", uname, err)
	}
	return usr
}

func createClass(t *testing.T, env testEnv, teacher user.User, students ...user.User) classroom.ClassRoom {
	t.Helper()
	ctx := context.Background()
	class, err := env.classSvc.Create(ctx, teacher, classroom.NewClassRoom{Name: "Grade 7 Math"})
	if err != nil {
		t.Fatalf("classSvc.Create() failed: %v", err)
	}
	for _, s := range students {
		if _, err = env.classSvc.Enroll(ctx, teacher, class.ID, s.ID); err != nil {
			t.Fatalf("classSvc.Enroll() failed: %v", err)
		}
	}
	return class
}

func TestService_CreateSession(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	teacher := createUser(t, env.usrRepo, "teacher", user.RoleTeacher)
	other := createUser(t, env.usrRepo, "other", user.RoleTeacher)
	class := createClass(t, env, teacher)

	s, err := env.svc.CreateSession(ctx, teacher, attendance.NewSession{ClassID: class.ID})
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	if s.Token == "" {
		t.Error("CreateSession() returned an empty token")
	}
	if got, want := s.ExpiresAt.Sub(s.CreatedAt), 15*time.Minute; got != want {
		t.Errorf("default TTL = %v, want %v", got, want)
	}

	// explicit TTL is honored but clamped to the configured maximum
	s, err = env.svc.CreateSession(ctx, teacher, attendance.NewSession{ClassID: class.ID, TTLSeconds: 60})
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	if got, want := s.ExpiresAt.Sub(s.CreatedAt), time.Minute; got != want {
		t.Errorf("TTL = %v, want %v", got, want)
	}
	s, err = env.svc.CreateSession(ctx, teacher, attendance.NewSession{ClassID: class.ID, TTLSeconds: int((5 * time.Hour).Seconds())})
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	if got, want := s.ExpiresAt.Sub(s.CreatedAt), 2*time.Hour; got != want {
		t.Errorf("clamped TTL = %v, want %v", got, want)
	}

	// only the owning teacher (or an admin) may open a session
	if _, err = env.svc.CreateSession(ctx, other, attendance.NewSession{ClassID: class.ID}); errors.Cause(err) != attendance.ErrNotOwner {
		t.Errorf("CreateSession() error = %v, want %v", err, attendance.ErrNotOwner)
	}
}

func TestService_Scan(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	teacher := createUser(t, env.usrRepo, "teacher", user.RoleTeacher)
	student := createUser(t, env.usrRepo, "student", user.RoleStudent)
	outsider := createUser(t, env.usrRepo, "outsider", user.RoleStudent)
	class := createClass(t, env, teacher, student)

	s, err := env.svc.CreateSession(ctx, teacher, attendance.NewSession{ClassID: class.ID})
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}

	rec, already, err := env.svc.Scan(ctx, s.Token, student, attendance.ScanRequest{Location: "Room 12"})
	if err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}
	if already {
		t.Error("first Scan() reported already=true")
	}
	if rec.StudentID != student.ID || rec.SessionID != s.ID {
		t.Errorf("Scan() record = %+v", rec)
	}

	// a second scan is idempotent: same record, no new row
	rec2, already, err := env.svc.Scan(ctx, s.Token, student, attendance.ScanRequest{})
	if err != nil {
		t.Fatalf("second Scan() failed: %v", err)
	}
	if !already {
		t.Error("second Scan() reported already=false")
	}
	if rec2.ID != rec.ID {
		t.Errorf("second Scan() record ID = %d, want %d", rec2.ID, rec.ID)
	}
	records, err := env.svc.ListRecords(ctx, teacher, s.ID)
	if err != nil {
		t.Fatalf("ListRecords() failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}

	// unenrolled students are rejected
	if _, _, err = env.svc.Scan(ctx, s.Token, outsider, attendance.ScanRequest{}); errors.Cause(err) != attendance.ErrNotEnrolled {
		t.Errorf("Scan() error = %v, want %v", err, attendance.ErrNotEnrolled)
	}

	// unknown tokens are a 404
	if _, _, err = env.svc.Scan(ctx, "nope", student, attendance.ScanRequest{}); errors.Cause(err) != attendance.ErrSessionNotFound {
		t.Errorf("Scan() error = %v, want %v", err, attendance.ErrSessionNotFound)
	}
}

func TestService_Scan_expiredSession(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	teacher := createUser(t, env.usrRepo, "teacher", user.RoleTeacher)
	student := createUser(t, env.usrRepo, "student", user.RoleStudent)
	class := createClass(t, env, teacher, student)

	// plant a session that is already past its TTL
	now := time.Now().UTC()
	repo := dummydb.NewAttendanceRepository(env.db)
	s, err := repo.CreateSession(ctx, attendance.Session{
		ClassID:   class.ID,
		Token:     "expired-token",
		CreatedAt: now.Add(-time.Hour),
		ExpiresAt: now.Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}

	if _, _, err = env.svc.Scan(ctx, s.Token, student, attendance.ScanRequest{}); errors.Cause(err) != attendance.ErrSessionExpired {
		t.Errorf("Scan() error = %v, want %v", err, attendance.ErrSessionExpired)
	}
}

func TestService_ClassStats(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	teacher := createUser(t, env.usrRepo, "teacher", user.RoleTeacher)
	s1 := createUser(t, env.usrRepo, "student1", user.RoleStudent)
	s2 := createUser(t, env.usrRepo, "student2", user.RoleStudent)
	class := createClass(t, env, teacher, s1, s2)

	sess1, _ := env.svc.CreateSession(ctx, teacher, attendance.NewSession{ClassID: class.ID})
	sess2, _ := env.svc.CreateSession(ctx, teacher, attendance.NewSession{ClassID: class.ID})

	if _, _, err := env.svc.Scan(ctx, sess1.Token, s1, attendance.ScanRequest{}); err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}
	if _, _, err := env.svc.Scan(ctx, sess2.Token, s1, attendance.ScanRequest{}); err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}

	stats, err := env.svc.ClassStats(ctx, teacher, class.ID)
	if err != nil {
		t.Fatalf("ClassStats() failed: %v", err)
	}
	want := attendance.Stats{ClassID: class.ID, Sessions: 2, Records: 2, StudentsPresent: 1, RosterSize: 2}
	if stats != want {
		t.Errorf("ClassStats() = %+v, want %+v", stats, want)
	}

	// students cannot read stats
	if _, err = env.svc.ClassStats(ctx, s1, class.ID); errors.Cause(err) != attendance.ErrNotOwner {
		t.Errorf("ClassStats() error = %v, want %v", err, attendance.ErrNotOwner)
	}
}

func TestRepository_GetRecord_missing(t *testing.T) {
	env := setup(t)
	repo := dummydb.NewAttendanceRepository(env.db)

	_, err := repo.GetRecord(context.Background(), 404, 404)
	if errors.Cause(err) != attendance.ErrRecordNotFound {
		t.Errorf("GetRecord() error = %v, want %v", err, attendance.ErrRecordNotFound)
	}
}

func TestSession_Expired(t *testing.T) {
	now := time.Now().UTC()
	s := attendance.Session{CreatedAt: now, ExpiresAt: now.Add(10 * time.Minute)}

	if s.Expired(now.Add(9 * time.Minute)) {
		t.Error("Expired() = true before TTL elapsed")
	}
	if !s.Expired(now.Add(11 * time.Minute)) {
		t.Error("Expired() = false after TTL elapsed")
	}
}
