package randomcall

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/classroom"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrNotOwner = core.NewPermissionError("only the class teacher or an admin may do this")

	errCountExceedsRoster = errors.New("count exceeds the class roster size")
	errTooManyGroups      = errors.New("group count exceeds the class roster size")
	errEmptyRoster        = errors.New("class roster is empty")

	nowFunc = time.Now // mockable
)

// DefaultHistoryLimit caps History when the caller does not ask for a limit.
const DefaultHistoryLimit = 100

type (
	Repository interface {
		InsertLogs(ctx context.Context, logs []CallLog) error
		// QueryRecentLogs returns the class's last n log rows, most recent first.
		QueryRecentLogs(ctx context.Context, classID, n int) ([]CallLog, error)
		// QueryHistory pages the class's log, most recent first. limit must
		// be positive; History applies DefaultHistoryLimit before calling.
		QueryHistory(ctx context.Context, classID, limit int) ([]CallLog, error)
	}

	// ClassDirectory is the slice of the classroom service this package needs.
	ClassDirectory interface {
		GetByID(ctx context.Context, id int) (classroom.ClassRoom, error)
		Roster(ctx context.Context, classID int) ([]user.User, error)
	}

	// Source is the randomness seam; *math/rand.Rand satisfies it and tests
	// inject a seeded one for reproducibility.
	Source interface {
		Intn(n int) int
		Shuffle(n int, swap func(i, j int))
	}

	Service struct {
		repo    Repository
		classes ClassDirectory
		rnd     Source
	}
)

// NewSource returns the default (time-seeded) randomness source.
func NewSource() Source {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func NewService(repo Repository, classes ClassDirectory, rnd Source) *Service {
	if rnd == nil {
		rnd = NewSource()
	}
	return &Service{repo: repo, classes: classes, rnd: rnd}
}

// SelectStudents picks req.Count distinct students from the class roster,
// uniformly at random, excluding the students found in the class's last
// req.AvoidRecentN call-log rows. If the exclusion leaves fewer candidates
// than requested, the pool falls back to the full roster. The selection is
// logged (one row per student, shared call id) before it is returned.
func (svc *Service) SelectStudents(ctx context.Context, actor user.User, req SelectRequest) ([]user.User, error) {
	roster, err := svc.managedRoster(ctx, actor, req.ClassID)
	if err != nil {
		return nil, err
	}
	if req.Count > len(roster) {
		return nil, core.NewValidationError(errCountExceedsRoster, core.FieldError{
			Field: "count", Error: errCountExceedsRoster.Error(),
		})
	}

	candidates := roster
	if req.AvoidRecentN > 0 {
		recent, err := svc.repo.QueryRecentLogs(ctx, req.ClassID, req.AvoidRecentN)
		if err != nil {
			return nil, errors.Wrap(err, "querying recent call logs")
		}
		excluded := make(map[int]struct{}, len(recent))
		for _, entry := range recent {
			excluded[entry.StudentID] = struct{}{}
		}
		remaining := make([]user.User, 0, len(roster))
		for _, student := range roster {
			if _, ok := excluded[student.ID]; !ok {
				remaining = append(remaining, student)
			}
		}
		// exhausted-pool fallback: sample from the full roster
		if len(remaining) >= req.Count {
			candidates = remaining
		}
	}

	selected := svc.sample(candidates, req.Count)

	callID := uuid.New().String()
	now := nowFunc().UTC()
	logs := make([]CallLog, 0, len(selected))
	for _, student := range selected {
		logs = append(logs, CallLog{
			ClassID:   req.ClassID,
			StudentID: student.ID,
			CallID:    callID,
			CalledAt:  now,
		})
	}
	if err = svc.repo.InsertLogs(ctx, logs); err != nil {
		return nil, errors.Wrap(err, "logging selection")
	}
	return selected, nil
}

// SelectGroups partitions the full roster into req.GroupCount groups using a
// uniform shuffle followed by round-robin assignment; group sizes differ by
// at most 1.
func (svc *Service) SelectGroups(ctx context.Context, actor user.User, req GroupRequest) ([][]user.User, error) {
	roster, err := svc.managedRoster(ctx, actor, req.ClassID)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, core.NewValidationError(errEmptyRoster)
	}
	if req.GroupCount > len(roster) {
		return nil, core.NewValidationError(errTooManyGroups, core.FieldError{
			Field: "group_count", Error: errTooManyGroups.Error(),
		})
	}

	shuffled := make([]user.User, len(roster))
	copy(shuffled, roster)
	svc.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	groups := make([][]user.User, req.GroupCount)
	for i, student := range shuffled {
		g := i % req.GroupCount
		groups[g] = append(groups[g], student)
	}
	return groups, nil
}

// History returns the class's recent call log, most recent first.
func (svc *Service) History(ctx context.Context, actor user.User, classID, limit int) ([]CallLog, error) {
	if _, err := svc.managedRoster(ctx, actor, classID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return svc.repo.QueryHistory(ctx, classID, limit)
}

// Roster returns the class roster, for the class teacher or an admin.
func (svc *Service) Roster(ctx context.Context, actor user.User, classID int) ([]user.User, error) {
	return svc.managedRoster(ctx, actor, classID)
}

func (svc *Service) managedRoster(ctx context.Context, actor user.User, classID int) ([]user.User, error) {
	class, err := svc.classes.GetByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if !classroom.CanManage(actor, class) {
		return nil, ErrNotOwner
	}
	return svc.classes.Roster(ctx, classID)
}

// sample picks count elements uniformly at random without replacement.
func (svc *Service) sample(pool []user.User, count int) []user.User {
	picked := make([]user.User, 0, count)
	remaining := make([]user.User, len(pool))
	copy(remaining, pool)
	for len(picked) < count {
		i := svc.rnd.Intn(len(remaining))
		picked = append(picked, remaining[i])
		remaining[i] = remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
	}
	return picked
}
