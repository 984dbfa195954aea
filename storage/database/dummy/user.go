package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.users))
	for _, u := range repo.db.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	excluded := func(usr user.User) bool {
		for _, ex := range excludedUsers {
			if ex.ID == usr.ID {
				return true
			}
		}
		return false
	}
	for _, usr := range repo.query() {
		if excluded(usr) {
			continue
		}
		if usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if role, ok := repo.db.roles[usr.RoleID]; ok {
		usr.Role = *role
	}
	usr.ID = repo.db.nextID("users")
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id int) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	return repo.find(func(usr user.User) bool { return usr.Username == username })
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	return repo.find(func(usr user.User) bool { return usr.Email == email })
}

func (repo *userRepository) GetUserByUsernameOrEmail(_ context.Context, username string) (user.User, error) {
	return repo.find(func(usr user.User) bool { return usr.Username == username || usr.Email == username })
}

func (repo *userRepository) find(match func(user.User) bool) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.query() {
		if match(usr) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsers(_ context.Context, filter user.QueryFilter, _ ...core.DBOrdering) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := []user.User{}
	search := strings.ToLower(filter.Search)
	for _, usr := range repo.query() {
		if search != "" &&
			!strings.Contains(strings.ToLower(usr.Name), search) &&
			!strings.Contains(strings.ToLower(usr.Username), search) &&
			!strings.Contains(strings.ToLower(usr.Email), search) {
			continue
		}
		if filter.Role != "" && usr.Role.Name != filter.Role {
			continue
		}
		if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
			continue
		}
		users = append(users, usr)
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, isActive *bool) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.Name != "" {
		orig.Name = usr.Name
	}
	if usr.Username != "" {
		orig.Username = usr.Username
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.RoleID != 0 {
		orig.RoleID = usr.RoleID
		if role, rOK := repo.db.roles[usr.RoleID]; rOK {
			orig.Role = *role
		}
	}
	if len(usr.PasswordHash) > 0 {
		orig.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	orig.UpdatedAt = usr.UpdatedAt
	return *orig, nil
}

func (repo *userRepository) SetLastLogin(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	orig.LastLogin = null.TimeFrom(time.Now().UTC())
	return *orig, nil
}

func (repo *userRepository) DeactivateUsersByID(_ context.Context, ids ...int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		if usr, ok := repo.db.users[id]; ok {
			usr.IsActive = false
		}
	}
	return nil
}

func (repo *userRepository) QueryRoles(_ context.Context) ([]user.Role, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	roles := make([]user.Role, 0, len(repo.db.roles))
	for _, role := range repo.db.roles {
		roles = append(roles, *role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}

func (repo *userRepository) GetRoleByName(_ context.Context, name string) (user.Role, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, role := range repo.db.roles {
		if role.Name == name {
			return *role, nil
		}
	}
	return user.Role{}, user.ErrRoleNotFound
}

func (repo *userRepository) QueryPermissions(_ context.Context) ([]user.Permission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return append([]user.Permission{}, repo.db.perms...), nil
}
