package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/attendance"
)

const (
	selectSession = `
SELECT id, class_id, token, created_at, expires_at
FROM attendance_sessions`

	selectRecord = `
SELECT id, session_id, student_id, scanned_at, location, signature
FROM attendance_records`

	recordUniqueConstraint = "attendance_records_session_student_key"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) CreateSession(ctx context.Context, s attendance.Session) (attendance.Session, error) {
	err := repo.db.QueryRowContext(ctx, `
INSERT INTO attendance_sessions (class_id, token, created_at, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING id`,
		s.ClassID, s.Token, s.CreatedAt, s.ExpiresAt,
	).Scan(&s.ID)
	if err != nil {
		return attendance.Session{}, errors.Wrap(err, "inserting session")
	}
	return s, nil
}

func (repo *attendanceRepository) GetSessionByID(ctx context.Context, id int) (attendance.Session, error) {
	return repo.getSession(ctx, selectSession+" WHERE id = $1", id)
}

func (repo *attendanceRepository) GetSessionByToken(ctx context.Context, token string) (attendance.Session, error) {
	return repo.getSession(ctx, selectSession+" WHERE token = $1", token)
}

func (repo *attendanceRepository) getSession(ctx context.Context, query string, args ...interface{}) (attendance.Session, error) {
	var s attendance.Session
	if err := repo.db.GetContext(ctx, &s, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Session{}, attendance.ErrSessionNotFound
		}
		return attendance.Session{}, errors.Wrap(err, "getting session")
	}
	return s, nil
}

func (repo *attendanceRepository) QuerySessionsByClass(ctx context.Context, classIDs ...int) ([]attendance.Session, error) {
	if len(classIDs) == 0 {
		return []attendance.Session{}, nil
	}
	query, args, err := sqlx.In(selectSession+" WHERE class_id IN (?) ORDER BY created_at DESC", classIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building sessions query")
	}
	sessions := []attendance.Session{}
	if err = repo.db.SelectContext(ctx, &sessions, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	return sessions, nil
}

func (repo *attendanceRepository) QueryAllSessions(ctx context.Context) ([]attendance.Session, error) {
	sessions := []attendance.Session{}
	if err := repo.db.SelectContext(ctx, &sessions, selectSession+" ORDER BY created_at DESC"); err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	return sessions, nil
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, r attendance.Record) (attendance.Record, error) {
	err := repo.db.QueryRowContext(ctx, `
INSERT INTO attendance_records (session_id, student_id, scanned_at, location, signature)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`,
		r.SessionID, r.StudentID, r.ScannedAt, r.Location, r.Signature,
	).Scan(&r.ID)
	if err != nil {
		if isUniqueViolation(err, recordUniqueConstraint) {
			return attendance.Record{}, attendance.ErrDuplicateRecord
		}
		return attendance.Record{}, errors.Wrap(err, "inserting record")
	}
	return r, nil
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, sessionID, studentID int) (attendance.Record, error) {
	var r attendance.Record
	err := repo.db.GetContext(ctx, &r, selectRecord+" WHERE session_id = $1 AND student_id = $2", sessionID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "getting record")
	}
	return r, nil
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, sessionID int) ([]attendance.Record, error) {
	records := []attendance.Record{}
	err := repo.db.SelectContext(ctx, &records, selectRecord+" WHERE session_id = $1 ORDER BY scanned_at ASC", sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	return records, nil
}

func (repo *attendanceRepository) GetClassStats(ctx context.Context, classID int) (attendance.Stats, error) {
	stats := attendance.Stats{ClassID: classID}
	err := repo.db.GetContext(ctx, &stats, `
SELECT $1::int                                           AS class_id,
       COUNT(DISTINCT s.id)                              AS sessions,
       COUNT(r.id)                                       AS records,
       COUNT(DISTINCT r.student_id)                      AS students_present,
       (SELECT COUNT(*) FROM class_students cs WHERE cs.class_id = $1) AS roster_size
FROM attendance_sessions s
         LEFT JOIN attendance_records r ON r.session_id = s.id
WHERE s.class_id = $1`, classID)
	if err != nil {
		return attendance.Stats{}, errors.Wrap(err, "querying stats")
	}
	return stats, nil
}
