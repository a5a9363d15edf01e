package main

import (
	"context"
	"time"

	"github.com/medshare/backend/core"
	"github.com/medshare/backend/core/user"
)

// addUser updates or creates a user.User, bypassing email verification.
func (cli *commandLine) addUser(nickname, email, universityID, pwd string) error {
	ctx := context.Background()
	nickname = core.CleanString(nickname)
	email = core.CleanString(email, true /* lower */)
	universityID = core.CleanString(universityID, true /* lower */)

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		now := time.Now().UTC()
		usr = user.User{
			Nickname:     nickname,
			Email:        email,
			UniversityID: universityID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}

	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	return cli.usrRepo.SetUserPassword(ctx, usr.ID, usr.PasswordHash)
}
