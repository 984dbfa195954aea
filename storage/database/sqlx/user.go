package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

const selectUser = `
SELECT u.id, u.name, u.username, COALESCE(u.email, '') AS email, u.role_id, u.is_active,
       u.password_hash, u.created_at, u.updated_at, u.last_login,
       r.id AS "role.id", r.name AS "role.name", r.display_name AS "role.display_name"
FROM users u
         JOIN roles r ON r.id = u.role_id`

var userOrderings = map[string]string{
	"name":       "u.name",
	"username":   "u.username",
	"created_at": "u.created_at",
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	exclIDs := make([]int, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}
	if len(exclIDs) == 0 {
		exclIDs = append(exclIDs, 0) // empty IN () is invalid SQL
	}

	query, args, err := sqlx.In(
		"SELECT username, COALESCE(email, '') AS email FROM users WHERE (username = ? OR email = ?) AND id NOT IN (?)",
		username, email, exclIDs,
	)
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}

	var rows []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking uniqueness")
	}
	for _, row := range rows {
		if row.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && row.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	err := repo.db.QueryRowContext(ctx, `
INSERT INTO users (name, username, email, role_id, is_active, password_hash, created_at, updated_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
RETURNING id`,
		usr.Name, usr.Username, usr.Email, usr.RoleID, usr.IsActive, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, core.NewConflictError("a user with this username or email already exists")
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	return repo.getUser(ctx, selectUser+" WHERE u.id = $1", id)
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, selectUser+" WHERE u.username = $1", username)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, selectUser+" WHERE u.email = $1", email)
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, selectUser+" WHERE u.username = $1 OR u.email = $1", username)
}

func (repo *userRepository) getUser(ctx context.Context, query string, args ...interface{}) (user.User, error) {
	var usr user.User
	if err := repo.db.GetContext(ctx, &usr, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return usr, nil
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error) {
	query := selectUser + " WHERE 1=1"
	var args []interface{}

	next := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Search != "" {
		p := next("%" + filter.Search + "%")
		query += " AND (u.name ILIKE " + p + " OR u.username ILIKE " + p + " OR u.email ILIKE " + p + ")"
	}
	if filter.Role != "" {
		query += " AND r.name = " + next(filter.Role)
	}
	if filter.IsActive != nil {
		query += " AND u.is_active = " + next(*filter.IsActive)
	}
	query += orderBy(orderings, userOrderings, "u.created_at ASC")

	users := []user.User{}
	if err := repo.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	res, err := repo.db.ExecContext(ctx, `
UPDATE users
SET name          = COALESCE(NULLIF($2, ''), name),
    username      = COALESCE(NULLIF($3, ''), username),
    email         = COALESCE(NULLIF($4, ''), email),
    role_id       = CASE WHEN $5 > 0 THEN $5 ELSE role_id END,
    password_hash = CASE WHEN length($6) > 0 THEN $6 ELSE password_hash END,
    is_active     = COALESCE($7, is_active),
    updated_at    = $8
WHERE id = $1`,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.RoleID, usr.PasswordHash, isActive, usr.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, core.NewConflictError("a user with this username or email already exists")
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo *userRepository) SetLastLogin(ctx context.Context, usr user.User) (user.User, error) {
	now := time.Now().UTC()
	if _, err := repo.db.ExecContext(ctx, "UPDATE users SET last_login = $2 WHERE id = $1", usr.ID, now); err != nil {
		return user.User{}, errors.Wrap(err, "setting last login")
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo *userRepository) DeactivateUsersByID(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In("UPDATE users SET is_active = false, updated_at = ? WHERE id IN (?)", time.Now().UTC(), ids)
	if err != nil {
		return errors.Wrap(err, "building deactivate query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deactivating users")
	}
	return nil
}

func (repo *userRepository) QueryRoles(ctx context.Context) ([]user.Role, error) {
	roles := []user.Role{}
	if err := repo.db.SelectContext(ctx, &roles, "SELECT id, name, display_name FROM roles ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "querying roles")
	}
	return roles, nil
}

func (repo *userRepository) GetRoleByName(ctx context.Context, name string) (user.Role, error) {
	var role user.Role
	err := repo.db.GetContext(ctx, &role, "SELECT id, name, display_name FROM roles WHERE name = $1", name)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.Role{}, user.ErrRoleNotFound
		}
		return user.Role{}, errors.Wrap(err, "getting role")
	}
	return role, nil
}

func (repo *userRepository) QueryPermissions(ctx context.Context) ([]user.Permission, error) {
	perms := []user.Permission{}
	if err := repo.db.SelectContext(ctx, &perms, "SELECT id, role_id, resource, action FROM permissions"); err != nil {
		return nil, errors.Wrap(err, "querying permissions")
	}
	return perms, nil
}
