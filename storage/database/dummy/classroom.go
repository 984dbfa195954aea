package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/shule/core/classroom"
	"github.com/trezcool/shule/core/user"
)

type classRoomRepository struct {
	db *DB
}

var _ classroom.Repository = (*classRoomRepository)(nil) // interface compliance check

func NewClassRoomRepository(db *DB) *classRoomRepository {
	return &classRoomRepository{db: db}
}

func (repo *classRoomRepository) query() []classroom.ClassRoom {
	classes := make([]classroom.ClassRoom, 0, len(repo.db.classes))
	for _, class := range repo.db.classes {
		classes = append(classes, *class)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].ID < classes[j].ID })
	return classes
}

func (repo *classRoomRepository) CreateClassRoom(_ context.Context, class classroom.ClassRoom) (classroom.ClassRoom, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	class.ID = repo.db.nextID("classes")
	repo.db.classes[class.ID] = &class
	return class, nil
}

func (repo *classRoomRepository) GetClassRoomByID(_ context.Context, id int) (classroom.ClassRoom, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if class, ok := repo.db.classes[id]; ok {
		return *class, nil
	}
	return classroom.ClassRoom{}, classroom.ErrNotFound
}

func (repo *classRoomRepository) QueryAllClassRooms(_ context.Context) ([]classroom.ClassRoom, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.query(), nil
}

func (repo *classRoomRepository) QueryClassRoomsByTeacher(_ context.Context, teacherID int) ([]classroom.ClassRoom, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	classes := []classroom.ClassRoom{}
	for _, class := range repo.query() {
		if class.TeacherID == teacherID {
			classes = append(classes, class)
		}
	}
	return classes, nil
}

func (repo *classRoomRepository) QueryClassRoomsByStudent(_ context.Context, studentID int) ([]classroom.ClassRoom, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	classes := []classroom.ClassRoom{}
	for _, class := range repo.query() {
		if _, ok := repo.db.memberships[membershipKey{class.ID, studentID}]; ok {
			classes = append(classes, class)
		}
	}
	return classes, nil
}

func (repo *classRoomRepository) UpdateClassRoom(_ context.Context, class classroom.ClassRoom) (classroom.ClassRoom, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.classes[class.ID]; !ok {
		return classroom.ClassRoom{}, classroom.ErrNotFound
	}
	repo.db.classes[class.ID] = &class
	return class, nil
}

func (repo *classRoomRepository) DeleteClassRoom(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.classes, id)
	for key := range repo.db.memberships {
		if key.classID == id {
			delete(repo.db.memberships, key)
		}
	}
	return nil
}

func (repo *classRoomRepository) CreateMembership(_ context.Context, m classroom.Membership) (classroom.Membership, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	key := membershipKey{m.ClassID, m.StudentID}
	if _, ok := repo.db.memberships[key]; ok {
		return classroom.Membership{}, classroom.ErrAlreadyEnrolled
	}
	repo.db.memberships[key] = &m
	return m, nil
}

func (repo *classRoomRepository) DeleteMembership(_ context.Context, classID, studentID int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	key := membershipKey{classID, studentID}
	if _, ok := repo.db.memberships[key]; !ok {
		return classroom.ErrNotEnrolled
	}
	delete(repo.db.memberships, key)
	return nil
}

func (repo *classRoomRepository) IsEnrolled(_ context.Context, classID, studentID int) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	_, ok := repo.db.memberships[membershipKey{classID, studentID}]
	return ok, nil
}

func (repo *classRoomRepository) QueryRoster(_ context.Context, classID int) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	roster := []user.User{}
	for key := range repo.db.memberships {
		if key.classID != classID {
			continue
		}
		if usr, ok := repo.db.users[key.studentID]; ok {
			roster = append(roster, *usr)
		}
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].ID < roster[j].ID })
	return roster, nil
}

func (repo *classRoomRepository) CountMemberships(_ context.Context, classID int) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for key := range repo.db.memberships {
		if key.classID == classID {
			count++
		}
	}
	return count, nil
}
