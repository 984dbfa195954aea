// Package dummydb provides in-memory repository implementations used by
// tests. Uniqueness invariants enforced by the real schema are emulated here
// so services can be exercised without PostgreSQL.
package dummydb

import (
	"sync"

	"github.com/trezcool/shule/core/article"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/classroom"
	"github.com/trezcool/shule/core/homework"
	"github.com/trezcool/shule/core/randomcall"
	"github.com/trezcool/shule/core/user"
)

type membershipKey struct {
	classID   int
	studentID int
}

type DB struct {
	mu sync.RWMutex

	users       map[int]*user.User
	roles       map[int]*user.Role
	perms       []user.Permission
	classes     map[int]*classroom.ClassRoom
	memberships map[membershipKey]*classroom.Membership
	sessions    map[int]*attendance.Session
	records     map[int]*attendance.Record
	assignments map[int]*homework.Assignment
	submissions map[int]*homework.Submission
	articles    map[int]*article.Article
	recitations map[int]*article.RecitationRecord
	callLogs    []randomcall.CallLog

	seq map[string]int
}

func Open() (*DB, error) {
	db := &DB{
		users:       make(map[int]*user.User),
		roles:       make(map[int]*user.Role),
		classes:     make(map[int]*classroom.ClassRoom),
		memberships: make(map[membershipKey]*classroom.Membership),
		sessions:    make(map[int]*attendance.Session),
		records:     make(map[int]*attendance.Record),
		assignments: make(map[int]*homework.Assignment),
		submissions: make(map[int]*homework.Submission),
		articles:    make(map[int]*article.Article),
		recitations: make(map[int]*article.RecitationRecord),
		seq:         make(map[string]int),
	}
	db.seedRoles()
	return db, nil
}

func (db *DB) nextID(table string) int {
	db.seq[table]++
	return db.seq[table]
}

// seedRoles mirrors the seed migration: static roles + permissions.
func (db *DB) seedRoles() {
	for _, role := range []user.Role{
		{ID: 1, Name: user.RoleAdmin, DisplayName: "Admin"},
		{ID: 2, Name: user.RoleTeacher, DisplayName: "Teacher"},
		{ID: 3, Name: user.RoleStudent, DisplayName: "Student"},
	} {
		r := role
		db.roles[r.ID] = &r
	}
	db.seq["roles"] = 3

	teacherPerms := [][2]string{
		{"classes", "read"}, {"classes", "write"},
		{"attendance", "read"}, {"attendance", "write"},
		{"homework", "read"}, {"homework", "write"},
		{"articles", "read"}, {"articles", "write"},
		{"random", "read"}, {"random", "write"},
	}
	studentPerms := [][2]string{
		{"classes", "read"},
		{"attendance", "write"},
		{"homework", "read"}, {"homework", "write"},
		{"articles", "read"},
	}
	for _, p := range teacherPerms {
		db.perms = append(db.perms, user.Permission{ID: db.nextID("permissions"), RoleID: 2, Resource: p[0], Action: p[1]})
	}
	for _, p := range studentPerms {
		db.perms = append(db.perms, user.Permission{ID: db.nextID("permissions"), RoleID: 3, Resource: p[0], Action: p[1]})
	}
}
