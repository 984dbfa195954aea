package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/classroom"
	"github.com/trezcool/shule/core/user"
)

const selectClass = `
SELECT id, name, teacher_id, grade, semester, capacity, created_at, updated_at
FROM classes`

type classRoomRepository struct {
	db *sqlx.DB
}

var _ classroom.Repository = (*classRoomRepository)(nil)

func NewClassRoomRepository(db *sqlx.DB) *classRoomRepository {
	return &classRoomRepository{db: db}
}

func (repo *classRoomRepository) CreateClassRoom(ctx context.Context, class classroom.ClassRoom) (classroom.ClassRoom, error) {
	err := repo.db.QueryRowContext(ctx, `
INSERT INTO classes (name, teacher_id, grade, semester, capacity, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`,
		class.Name, class.TeacherID, class.Grade, class.Semester, class.Capacity, class.CreatedAt, class.UpdatedAt,
	).Scan(&class.ID)
	if err != nil {
		return classroom.ClassRoom{}, errors.Wrap(err, "inserting class")
	}
	return class, nil
}

func (repo *classRoomRepository) GetClassRoomByID(ctx context.Context, id int) (classroom.ClassRoom, error) {
	var class classroom.ClassRoom
	if err := repo.db.GetContext(ctx, &class, selectClass+" WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return classroom.ClassRoom{}, classroom.ErrNotFound
		}
		return classroom.ClassRoom{}, errors.Wrap(err, "getting class")
	}
	return class, nil
}

func (repo *classRoomRepository) QueryAllClassRooms(ctx context.Context) ([]classroom.ClassRoom, error) {
	classes := []classroom.ClassRoom{}
	if err := repo.db.SelectContext(ctx, &classes, selectClass+" ORDER BY created_at"); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	return classes, nil
}

func (repo *classRoomRepository) QueryClassRoomsByTeacher(ctx context.Context, teacherID int) ([]classroom.ClassRoom, error) {
	classes := []classroom.ClassRoom{}
	err := repo.db.SelectContext(ctx, &classes, selectClass+" WHERE teacher_id = $1 ORDER BY created_at", teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "querying classes by teacher")
	}
	return classes, nil
}

func (repo *classRoomRepository) QueryClassRoomsByStudent(ctx context.Context, studentID int) ([]classroom.ClassRoom, error) {
	classes := []classroom.ClassRoom{}
	err := repo.db.SelectContext(ctx, &classes, `
SELECT c.id, c.name, c.teacher_id, c.grade, c.semester, c.capacity, c.created_at, c.updated_at
FROM classes c
         JOIN class_students cs ON cs.class_id = c.id
WHERE cs.student_id = $1
ORDER BY c.created_at`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying classes by student")
	}
	return classes, nil
}

func (repo *classRoomRepository) UpdateClassRoom(ctx context.Context, class classroom.ClassRoom) (classroom.ClassRoom, error) {
	res, err := repo.db.ExecContext(ctx, `
UPDATE classes
SET name = $2, teacher_id = $3, grade = $4, semester = $5, capacity = $6, updated_at = $7
WHERE id = $1`,
		class.ID, class.Name, class.TeacherID, class.Grade, class.Semester, class.Capacity, class.UpdatedAt,
	)
	if err != nil {
		return classroom.ClassRoom{}, errors.Wrap(err, "updating class")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return classroom.ClassRoom{}, classroom.ErrNotFound
	}
	return class, nil
}

func (repo *classRoomRepository) DeleteClassRoom(ctx context.Context, id int) error {
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM classes WHERE id = $1", id); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return nil
}

func (repo *classRoomRepository) CreateMembership(ctx context.Context, m classroom.Membership) (classroom.Membership, error) {
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO class_students (class_id, student_id, added_at) VALUES ($1, $2, $3)",
		m.ClassID, m.StudentID, m.AddedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return classroom.Membership{}, classroom.ErrAlreadyEnrolled
		}
		return classroom.Membership{}, errors.Wrap(err, "inserting membership")
	}
	return m, nil
}

func (repo *classRoomRepository) DeleteMembership(ctx context.Context, classID, studentID int) error {
	res, err := repo.db.ExecContext(ctx,
		"DELETE FROM class_students WHERE class_id = $1 AND student_id = $2", classID, studentID)
	if err != nil {
		return errors.Wrap(err, "deleting membership")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return classroom.ErrNotEnrolled
	}
	return nil
}

func (repo *classRoomRepository) IsEnrolled(ctx context.Context, classID, studentID int) (bool, error) {
	var enrolled bool
	err := repo.db.GetContext(ctx, &enrolled,
		"SELECT EXISTS(SELECT 1 FROM class_students WHERE class_id = $1 AND student_id = $2)", classID, studentID)
	if err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return enrolled, nil
}

func (repo *classRoomRepository) QueryRoster(ctx context.Context, classID int) ([]user.User, error) {
	roster := []user.User{}
	err := repo.db.SelectContext(ctx, &roster, selectUser+`
         JOIN class_students cs ON cs.student_id = u.id
WHERE cs.class_id = $1
ORDER BY u.name`, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}
	return roster, nil
}

func (repo *classRoomRepository) CountMemberships(ctx context.Context, classID int) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM class_students WHERE class_id = $1", classID)
	if err != nil {
		return 0, errors.Wrap(err, "counting memberships")
	}
	return count, nil
}
