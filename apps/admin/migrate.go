package main

import (
	"github.com/pressly/goose/v3"

	"github.com/mutabaah/mutabaah/fs"
	"github.com/mutabaah/mutabaah/storage/database"
)

var gooseRunFunc = goose.Run // mockable

type migrateCmd struct {
	Command string   `arg:"" help:"Goose command."`
	Args    []string `arg:"" optional:"" help:"Command arguments, e.g. the target version."`
}

func (cmd *migrateCmd) Run(cli *commandLine) error {
	if err := database.SetupMigrations(cli.conf); err != nil {
		return err
	}
	return gooseRunFunc(cmd.Command, cli.db, appfs.MigrationsDir, cmd.Args...)
}
