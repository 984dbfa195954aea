package dummydb

import (
	"context"

	"github.com/trezcool/shule/core/randomcall"
)

type randomCallRepository struct {
	db *DB
}

var _ randomcall.Repository = (*randomCallRepository)(nil) // interface compliance check

func NewRandomCallRepository(db *DB) *randomCallRepository {
	return &randomCallRepository{db: db}
}

func (repo *randomCallRepository) InsertLogs(_ context.Context, logs []randomcall.CallLog) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, log := range logs {
		log.ID = repo.db.nextID("random_call_logs")
		repo.db.callLogs = append(repo.db.callLogs, log)
	}
	return nil
}

func (repo *randomCallRepository) QueryRecentLogs(_ context.Context, classID, n int) ([]randomcall.CallLog, error) {
	logs, err := repo.queryReverse(classID)
	if err != nil {
		return nil, err
	}
	if len(logs) > n {
		logs = logs[:n]
	}
	return logs, nil
}

func (repo *randomCallRepository) QueryHistory(_ context.Context, classID, limit int) ([]randomcall.CallLog, error) {
	logs, err := repo.queryReverse(classID)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = 0
	}
	if len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

// queryReverse returns the class's logs most recent first. callLogs is append
// only so reverse insertion order matches reverse chronological order.
func (repo *randomCallRepository) queryReverse(classID int) ([]randomcall.CallLog, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	logs := []randomcall.CallLog{}
	for i := len(repo.db.callLogs) - 1; i >= 0; i-- {
		if repo.db.callLogs[i].ClassID == classID {
			logs = append(logs, repo.db.callLogs[i])
		}
	}
	return logs, nil
}
