package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/shule/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) CreateSession(_ context.Context, s attendance.Session) (attendance.Session, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	s.ID = repo.db.nextID("attendance_sessions")
	repo.db.sessions[s.ID] = &s
	return s, nil
}

func (repo *attendanceRepository) GetSessionByID(_ context.Context, id int) (attendance.Session, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.sessions[id]; ok {
		return *s, nil
	}
	return attendance.Session{}, attendance.ErrSessionNotFound
}

func (repo *attendanceRepository) GetSessionByToken(_ context.Context, token string) (attendance.Session, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, s := range repo.db.sessions {
		if s.Token == token {
			return *s, nil
		}
	}
	return attendance.Session{}, attendance.ErrSessionNotFound
}

func (repo *attendanceRepository) QuerySessionsByClass(_ context.Context, classIDs ...int) ([]attendance.Session, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	wanted := make(map[int]struct{}, len(classIDs))
	for _, id := range classIDs {
		wanted[id] = struct{}{}
	}
	sessions := []attendance.Session{}
	for _, s := range repo.db.sessions {
		if _, ok := wanted[s.ClassID]; ok {
			sessions = append(sessions, *s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.After(sessions[j].CreatedAt) })
	return sessions, nil
}

func (repo *attendanceRepository) QueryAllSessions(_ context.Context) ([]attendance.Session, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	sessions := []attendance.Session{}
	for _, s := range repo.db.sessions {
		sessions = append(sessions, *s)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.After(sessions[j].CreatedAt) })
	return sessions, nil
}

func (repo *attendanceRepository) CreateRecord(_ context.Context, r attendance.Record) (attendance.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, existing := range repo.db.records {
		if existing.SessionID == r.SessionID && existing.StudentID == r.StudentID {
			return attendance.Record{}, attendance.ErrDuplicateRecord
		}
	}
	r.ID = repo.db.nextID("attendance_records")
	repo.db.records[r.ID] = &r
	return r, nil
}

func (repo *attendanceRepository) GetRecord(_ context.Context, sessionID, studentID int) (attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, r := range repo.db.records {
		if r.SessionID == sessionID && r.StudentID == studentID {
			return *r, nil
		}
	}
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, sessionID int) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	records := []attendance.Record{}
	for _, r := range repo.db.records {
		if r.SessionID == sessionID {
			records = append(records, *r)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ScannedAt.Before(records[j].ScannedAt) })
	return records, nil
}

func (repo *attendanceRepository) GetClassStats(_ context.Context, classID int) (attendance.Stats, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	stats := attendance.Stats{ClassID: classID}
	sessionIDs := make(map[int]struct{})
	for _, s := range repo.db.sessions {
		if s.ClassID == classID {
			stats.Sessions++
			sessionIDs[s.ID] = struct{}{}
		}
	}
	present := make(map[int]struct{})
	for _, r := range repo.db.records {
		if _, ok := sessionIDs[r.SessionID]; ok {
			stats.Records++
			present[r.StudentID] = struct{}{}
		}
	}
	stats.StudentsPresent = len(present)
	for key := range repo.db.memberships {
		if key.classID == classID {
			stats.RosterSize++
		}
	}
	return stats, nil
}
