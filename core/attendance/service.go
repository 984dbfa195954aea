package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/classroom"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrSessionNotFound = core.NewNotFoundError("attendance session not found")
	ErrRecordNotFound  = core.NewNotFoundError("attendance record not found")
	ErrSessionExpired  = core.NewExpiredError("attendance session has expired")
	ErrNotEnrolled     = core.NewPermissionError("student is not enrolled in this class")
	ErrNotOwner        = core.NewPermissionError("only the class teacher or an admin may do this")

	// ErrDuplicateRecord is returned by repositories when the store rejects a
	// second record for the same (session, student) pair.
	ErrDuplicateRecord = core.NewConflictError("student has already signed this session")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateSession(ctx context.Context, s Session) (Session, error)
		GetSessionByID(ctx context.Context, id int) (Session, error)
		GetSessionByToken(ctx context.Context, token string) (Session, error)
		QuerySessionsByClass(ctx context.Context, classIDs ...int) ([]Session, error)
		QueryAllSessions(ctx context.Context) ([]Session, error)
		// CreateRecord returns ErrDuplicateRecord when a record already exists
		// for (session, student); the uniqueness constraint lives in the store,
		// never in application-level check-then-insert.
		CreateRecord(ctx context.Context, r Record) (Record, error)
		GetRecord(ctx context.Context, sessionID, studentID int) (Record, error)
		// QueryRecords returns a session's records ordered by scan time ascending.
		QueryRecords(ctx context.Context, sessionID int) ([]Record, error)
		GetClassStats(ctx context.Context, classID int) (Stats, error)
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
		conf    *core.Config
	}
)

func NewService(repo Repository, classes ClassDirectory, conf *core.Config) *Service {
	return &Service{repo: repo, classes: classes, conf: conf}
}

// CreateSession opens a signing session for a class with a freshly generated
// unguessable token. Only the class's teacher, or an admin, may do this.
func (svc *Service) CreateSession(ctx context.Context, actor user.User, ns NewSession) (Session, error) {
	class, err := svc.classes.GetByID(ctx, ns.ClassID)
	if err != nil {
		return Session{}, err
	}
	if !classroom.CanManage(actor, class) {
		return Session{}, ErrNotOwner
	}

	ttl := svc.conf.Attendance.DefaultSessionTTL
	if ns.TTLSeconds > 0 {
		ttl = time.Duration(ns.TTLSeconds) * time.Second
	}
	if max := svc.conf.Attendance.MaxSessionTTL; max > 0 && ttl > max {
		ttl = max
	}

	now := nowFunc().UTC()
	s := Session{
		ClassID:   class.ID,
		Token:     uuid.New().String(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	return svc.repo.CreateSession(ctx, s)
}

// Scan records a student's presence against the session identified by token.
// A repeated scan for the same (session, student) returns the existing record
// with already=true instead of failing, to tolerate double-submission from
// flaky networks.
func (svc *Service) Scan(ctx context.Context, token string, student user.User, req ScanRequest) (rec Record, already bool, err error) {
	session, err := svc.repo.GetSessionByToken(ctx, token)
	if err != nil {
		return Record{}, false, err
	}
	if session.Expired(nowFunc().UTC()) {
		return Record{}, false, ErrSessionExpired
	}
	enrolled, err := svc.classes.IsEnrolled(ctx, session.ClassID, student.ID)
	if err != nil {
		return Record{}, false, errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return Record{}, false, ErrNotEnrolled
	}

	rec = Record{
		SessionID: session.ID,
		StudentID: student.ID,
		ScannedAt: nowFunc().UTC(),
		Location:  null.NewString(req.Location, req.Location != ""),
		Signature: null.NewString(req.Signature, req.Signature != ""),
	}
	rec, err = svc.repo.CreateRecord(ctx, rec)
	if err != nil {
		if errors.Cause(err) == ErrDuplicateRecord {
			// a concurrent or repeated scan won the race; return its record
			existing, gErr := svc.repo.GetRecord(ctx, session.ID, student.ID)
			if gErr != nil {
				return Record{}, false, gErr
			}
			return existing, true, nil
		}
		return Record{}, false, err
	}
	return rec, false, nil
}

// ListRecords returns a session's records ordered by scan time ascending.
// Teacher (owner) or admin only.
func (svc *Service) ListRecords(ctx context.Context, actor user.User, sessionID int) ([]Record, error) {
	session, err := svc.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	class, err := svc.classes.GetByID(ctx, session.ClassID)
	if err != nil {
		return nil, err
	}
	if !classroom.CanManage(actor, class) {
		return nil, ErrNotOwner
	}
	return svc.repo.QueryRecords(ctx, sessionID)
}

// GetSession returns a session by id, for the class teacher or an admin.
func (svc *Service) GetSession(ctx context.Context, actor user.User, sessionID int) (Session, error) {
	session, err := svc.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	class, err := svc.classes.GetByID(ctx, session.ClassID)
	if err != nil {
		return Session{}, err
	}
	if !classroom.CanManage(actor, class) {
		return Session{}, ErrNotOwner
	}
	return session, nil
}

// QuerySessions lists the sessions of the classes visible to the actor.
func (svc *Service) QuerySessions(ctx context.Context, actor user.User) ([]Session, error) {
	if actor.IsAdmin() {
		return svc.repo.QueryAllSessions(ctx)
	}
	classes, err := svc.classes.QueryForUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return []Session{}, nil
	}
	ids := make([]int, 0, len(classes))
	for _, class := range classes {
		ids = append(ids, class.ID)
	}
	return svc.repo.QuerySessionsByClass(ctx, ids...)
}

// ClassStats summarizes attendance for one class; teacher (owner) or admin only.
func (svc *Service) ClassStats(ctx context.Context, actor user.User, classID int) (Stats, error) {
	class, err := svc.classes.GetByID(ctx, classID)
	if err != nil {
		return Stats{}, err
	}
	if !classroom.CanManage(actor, class) {
		return Stats{}, ErrNotOwner
	}
	return svc.repo.GetClassStats(ctx, classID)
}

// ScanURL returns the frontend URL students hit when scanning the session QR code.
func (svc *Service) ScanURL(s Session) string {
	return svc.conf.FrontendBaseURL + "/attendance/scan/" + s.Token
}
