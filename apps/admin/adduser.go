package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/core/role"
	"github.com/fnedigital/genera/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(email, first, last, pwd string, isAdmin bool) error {
	email = core.CleanString(email, true /* lower */)

	var created bool
	usr, err := cli.usrRepo.GetUserByEmail(email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		created = true
		usr = user.User{
			ID:        uuid.NewString(),
			Email:     email,
			CreatedAt: time.Now().UTC(),
		}
	}
	usr.FirstName = core.CleanString(first)
	usr.LastName = core.CleanString(last)
	usr.IsActive = true
	usr.UpdatedAt = time.Now().UTC()
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if created {
		usr, err = cli.usrRepo.CreateUser(usr)
	} else {
		usr, err = cli.usrRepo.UpdateUser(usr, nil)
	}
	if err != nil {
		return err
	}

	if isAdmin {
		_, err = cli.roleRepo.CreateAssignment(context.Background(), role.Assignment{
			UserID:   usr.ID,
			RoleType: role.RoleAdmin,
			IsActive: true,
		})
	}
	return err
}
