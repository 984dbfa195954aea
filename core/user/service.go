package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("user not found")
	ErrRoleNotFound   = core.NewNotFoundError("role not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id int) (User, error)
		GetUserByUsername(ctx context.Context, username string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		GetUserByUsernameOrEmail(ctx context.Context, username string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Username or User.Email.
		FilterUsers(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]User, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		DeactivateUsersByID(ctx context.Context, ids ...int) error
		QueryRoles(ctx context.Context) ([]Role, error)
		GetRoleByName(ctx context.Context, name string) (Role, error)
		QueryPermissions(ctx context.Context) ([]Permission, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config

		perms map[permKey]struct{} // loaded once at boot; static reference data
	}

	permKey struct {
		role     string
		resource string
		action   string
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	initTokenGen(conf)
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *Service) checkUniqueness(uname, email string, exclUsers ...User) error {
	err := svc.repo.CheckUsernameUniqueness(context.Background(), uname, email, exclUsers...)
	if err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	role, err := svc.repo.GetRoleByName(ctx, nu.Role)
	if err != nil {
		return User{}, errors.Wrap(err, "getting role")
	}

	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		RoleID:    role.ID,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}

	usr, err = svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeEmail(usr)
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]User, error) {
	return svc.repo.FilterUsers(ctx, filter, orderings...)
}

func (svc *Service) Update(ctx context.Context, id int, uu UpdateUser) (User, error) {
	usr := User{
		ID:        id,
		Name:      uu.Name,
		Username:  uu.Username,
		Email:     uu.Email,
		UpdatedAt: time.Now().UTC(),
	}
	if uu.Role != "" {
		role, err := svc.repo.GetRoleByName(ctx, uu.Role)
		if err != nil {
			return User{}, errors.Wrap(err, "getting role")
		}
		usr.RoleID = role.ID
		usr.Role = role
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(ctx, usr, uu.IsActive)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	return svc.repo.SetLastLogin(ctx, usr)
}

// Deactivate flips users inactive; users are never hard-deleted.
func (svc *Service) Deactivate(ctx context.Context, ids ...int) error {
	return svc.repo.DeactivateUsersByID(ctx, ids...)
}

func (svc *Service) QueryRoles(ctx context.Context) ([]Role, error) {
	return svc.repo.QueryRoles(ctx)
}

// LoadPermissions caches the permissions table in-process. It must be called
// once at application start-up, before HasPerm.
func (svc *Service) LoadPermissions(ctx context.Context) error {
	perms, err := svc.repo.QueryPermissions(ctx)
	if err != nil {
		return errors.Wrap(err, "querying permissions")
	}
	roles, err := svc.repo.QueryRoles(ctx)
	if err != nil {
		return errors.Wrap(err, "querying roles")
	}
	names := make(map[int]string, len(roles))
	for _, role := range roles {
		names[role.ID] = role.Name
	}

	svc.perms = make(map[permKey]struct{}, len(perms))
	for _, p := range perms {
		svc.perms[permKey{role: names[p.RoleID], resource: p.Resource, action: p.Action}] = struct{}{}
	}
	return nil
}

// HasPerm reports whether the role is allowed to perform action on resource.
// Admins are implicitly allowed everything.
func (svc *Service) HasPerm(role, resource, action string) bool {
	if role == RoleAdmin {
		return true
	}
	_, ok := svc.perms[permKey{role: role, resource: resource, action: action}]
	return ok
}

// RequestPasswordReset emails a password reset link to the user, if known.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      svc.conf.AppName + " - Password Reset",
		TemplateName: "password-reset",
		TemplateData: struct {
			User  User
			UID   string
			Token string
		}{usr, EncodeUID(usr), makeToken(usr)},
	}
	if err = msg.Render(svc.conf); err != nil {
		return err
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}

// ResetPassword sets a new password if the provided reset token is valid.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}

	if err = usr.SetPassword(rp.Password); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err = svc.repo.UpdateUser(ctx, usr, nil); err != nil {
		return err
	}
	return nil
}

func (svc *Service) sendWelcomeEmail(usr User) {
	if usr.Email == "" {
		return
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome to " + svc.conf.AppName,
		TemplateName: "welcome",
		TemplateData: struct{ User User }{usr},
	}
	if err := msg.Render(svc.conf); err != nil {
		return // welcome email is best-effort
	}
	svc.mailSvc.SendMessages(msg)
}
