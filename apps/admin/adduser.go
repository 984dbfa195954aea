package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, name, roleName, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	roleName = core.CleanString(roleName, true /* lower */)

	role, err := cli.usrRepo.GetRoleByName(ctx, roleName)
	if err != nil {
		return errors.Wrap(err, "getting role")
	}

	now := time.Now().UTC()
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Name:      name,
			Username:  uname,
			Email:     email,
			RoleID:    role.ID,
			Role:      role,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}

	if name != "" {
		usr.Name = name
	}
	usr.RoleID = role.ID
	usr.Role = role
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	active := true
	_, err = cli.usrRepo.UpdateUser(ctx, usr, &active)
	return err
}
