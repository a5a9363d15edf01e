package main

import (
	"context"

	"github.com/medshare/backend/core"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	return cli.usrRepo.SetUserPassword(ctx, usr.ID, usr.PasswordHash)
}
