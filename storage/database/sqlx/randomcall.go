package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/randomcall"
)

const selectCallLog = `
SELECT id, class_id, student_id, call_id, called_at
FROM random_call_logs`

type randomCallRepository struct {
	db *sqlx.DB
}

var _ randomcall.Repository = (*randomCallRepository)(nil)

func NewRandomCallRepository(db *sqlx.DB) *randomCallRepository {
	return &randomCallRepository{db: db}
}

func (repo *randomCallRepository) InsertLogs(ctx context.Context, logs []randomcall.CallLog) error {
	if len(logs) == 0 {
		return nil
	}
	_, err := repo.db.NamedExecContext(ctx, `
INSERT INTO random_call_logs (class_id, student_id, call_id, called_at)
VALUES (:class_id, :student_id, :call_id, :called_at)`, logs)
	if err != nil {
		return errors.Wrap(err, "inserting call logs")
	}
	return nil
}

func (repo *randomCallRepository) QueryRecentLogs(ctx context.Context, classID, n int) ([]randomcall.CallLog, error) {
	logs := []randomcall.CallLog{}
	err := repo.db.SelectContext(ctx, &logs,
		selectCallLog+" WHERE class_id = $1 ORDER BY called_at DESC, id DESC LIMIT $2", classID, n)
	if err != nil {
		return nil, errors.Wrap(err, "querying recent call logs")
	}
	return logs, nil
}

func (repo *randomCallRepository) QueryHistory(ctx context.Context, classID, limit int) ([]randomcall.CallLog, error) {
	return repo.QueryRecentLogs(ctx, classID, limit)
}
