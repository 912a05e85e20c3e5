package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/calendar"
	"github.com/mutabaah/mutabaah/core/child"
	"github.com/mutabaah/mutabaah/core/prayer"
	"github.com/mutabaah/mutabaah/core/user"
	logsvc "github.com/mutabaah/mutabaah/services/logger"
	"github.com/mutabaah/mutabaah/storage/database"
	sqlxrepos "github.com/mutabaah/mutabaah/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(conf), conf)
	logger.Enable(!conf.Debug)

	if conf.Database.Engine == database.EngineMemory {
		logger.Fatal(fmt.Sprintf("admin: the %q engine keeps nothing to administer", conf.Database.Engine))
	}
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer func() { _ = db.Close() }()

	children := sqlxrepos.NewChildRepository(db)
	cli := &commandLine{
		conf:     conf,
		db:       db.DB,
		users:    user.NewService(sqlxrepos.NewUserRepository(db)),
		children: child.NewService(children),
		prayers:  prayer.NewService(sqlxrepos.NewLedger(db), children),
		cal:      calendar.NewResolver(conf.Location, conf.WeekStart),
		out:      os.Stdout,
		now:      time.Now,
	}
	if err = cli.run(os.Args[1:]); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		_ = db.Close()
		os.Exit(1)
	}
}
