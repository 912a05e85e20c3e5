package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mutabaah/mutabaah/core/user"
)

type addUserCmd struct {
	Username string `required:"" help:"Login name."`
	Name     string `help:"Display name; defaults to the username."`
}

func (cmd *addUserCmd) Run(cli *commandLine) error {
	pwd, err := cli.promptPassword()
	if err != nil {
		return err
	}
	name := cmd.Name
	if name == "" {
		name = cmd.Username
	}

	ctx := context.Background()
	usr, created, err := cli.users.EnsureUser(ctx, cmd.Username, name, pwd)
	if err != nil {
		return errors.Wrap(err, "adding user")
	}
	if created {
		cli.printf("user %q created\n", usr.Username)
		return nil
	}

	if usr, err = cli.users.ResetPassword(ctx, usr.Username, pwd); err != nil {
		return errors.Wrap(err, "updating user")
	}
	if !usr.IsActive {
		active := true
		uu := user.UpdateUser{Name: usr.Name, Username: usr.Username, IsActive: &active}
		if usr, err = cli.users.Update(ctx, usr, uu); err != nil {
			return errors.Wrap(err, "activating user")
		}
	}
	cli.printf("user %q updated\n", usr.Username)
	return nil
}

type resetPasswordCmd struct {
	Username string `required:"" help:"Login name of the user."`
}

func (cmd *resetPasswordCmd) Run(cli *commandLine) error {
	pwd, err := cli.promptPassword()
	if err != nil {
		return err
	}
	usr, err := cli.users.ResetPassword(context.Background(), cmd.Username, pwd)
	if err != nil {
		return err
	}
	cli.printf("password of %q reset\n", usr.Username)
	return nil
}

type bootstrapCmd struct{}

func (cmd *bootstrapCmd) Run(cli *commandLine) error {
	admin := cli.conf.DefaultAdmin
	usr, created, err := cli.users.EnsureUser(context.Background(), admin.Username, "Admin", admin.Password)
	if err != nil {
		return errors.Wrap(err, "creating default admin")
	}
	if created {
		cli.printf("default admin %q created\n", usr.Username)
	} else {
		cli.printf("default admin %q already exists\n", usr.Username)
	}
	return nil
}
