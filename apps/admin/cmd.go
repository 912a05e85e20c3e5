package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/calendar"
	"github.com/mutabaah/mutabaah/core/child"
	"github.com/mutabaah/mutabaah/core/prayer"
	"github.com/mutabaah/mutabaah/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errEmptyPassword = errors.New("password must not be empty")
)

type commands struct {
	AddUser       addUserCmd       `cmd:"" name:"adduser" help:"Create a user, or reactivate an existing one with a new password. The password is prompted."`
	ResetPassword resetPasswordCmd `cmd:"" name:"resetpassword" help:"Reset a user's password. The password is prompted."`
	Migrate       migrateCmd       `cmd:"" help:"Run a goose migration command (up, up-by-one, up-to, down, down-to, redo, reset, status, version, create, fix)."`
	Reconcile     reconcileCmd     `cmd:"" help:"Backfill the missing prayer records of a window."`
	Bootstrap     bootstrapCmd     `cmd:"" help:"Create the default admin unless it already exists."`
}

type commandLine struct {
	conf     *core.Config
	db       *sql.DB
	users    *user.Service
	children *child.Service
	prayers  *prayer.Service
	cal      *calendar.Resolver
	out      io.Writer
	now      func() time.Time
}

// run parses args (without the program name) and runs the selected command.
func (cli *commandLine) run(args []string) error {
	var cmds commands
	parser, err := kong.New(&cmds,
		kong.Name("admin"),
		kong.Description(cli.conf.AppName+" administration"),
		kong.Writers(cli.out, cli.out),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kctx.Run(cli)
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cli.out, format, args...)
}

// promptPassword reads a password from the terminal without echoing it.
func (cli *commandLine) promptPassword() (string, error) {
	cli.printf("Enter password: ")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	cli.printf("\n")
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		return "", errEmptyPassword
	}
	return string(pwd), nil
}
