package dig_container

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/mutabaah/mutabaah/apps/api/echo"
	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/calendar"
	"github.com/mutabaah/mutabaah/core/child"
	"github.com/mutabaah/mutabaah/core/prayer"
	"github.com/mutabaah/mutabaah/core/prayertimes"
	"github.com/mutabaah/mutabaah/core/schedule"
	"github.com/mutabaah/mutabaah/core/user"
	emailsvc "github.com/mutabaah/mutabaah/services/email"
	logsvc "github.com/mutabaah/mutabaah/services/logger"
	"github.com/mutabaah/mutabaah/services/prayertimes/aladhan"
	"github.com/mutabaah/mutabaah/services/prayertimes/rediscache"
	"github.com/mutabaah/mutabaah/services/reminder"
	"github.com/mutabaah/mutabaah/storage/database"
	inmemdb "github.com/mutabaah/mutabaah/storage/database/inmem"
	sqlxrepos "github.com/mutabaah/mutabaah/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Store holds the repositories of the configured engine, and how to release them.
type Store struct {
	dig.Out

	Users     user.Repository
	Children  child.Repository
	Ledger    prayer.Ledger
	Schedules schedule.Repository
	Closer    io.Closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ServerParams gathers what the API server needs.
type ServerParams struct {
	dig.In

	Conf        *core.Config
	Logger      core.Logger
	Validate    *validator.Validate
	Translator  ut.Translator
	Calendar    *calendar.Resolver
	Users       *user.Service
	Children    *child.Service
	Prayers     *prayer.Service
	Schedules   *schedule.Service
	PrayerTimes *prayertimes.Service
}

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(conf), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStore(conf *core.Config, loggerParam DBLoggerParam) Store {
	if conf.Database.Engine == database.EngineMemory {
		db := inmemdb.Open()
		return Store{
			Users:     inmemdb.NewUserRepository(db),
			Children:  inmemdb.NewChildRepository(db),
			Ledger:    inmemdb.NewLedger(db),
			Schedules: inmemdb.NewScheduleRepository(db),
			Closer:    nopCloser{},
		}
	}

	db, err := database.Setup(conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return Store{
		Users:     sqlxrepos.NewUserRepository(db),
		Children:  sqlxrepos.NewChildRepository(db),
		Ledger:    sqlxrepos.NewLedger(db),
		Schedules: sqlxrepos.NewScheduleRepository(db),
		Closer:    db,
	}
}

func newCalendar(conf *core.Config) *calendar.Resolver {
	return calendar.NewResolver(conf.Location, conf.WeekStart)
}

func newPrayerTimesCache(conf *core.Config, logger core.Logger) prayertimes.Cache {
	rdb := rediscache.NewClient(conf)
	if rdb == nil {
		return prayertimes.NewMemoryCache()
	}
	logger.Info(fmt.Sprintf("prayer times cached in redis at %s", conf.Redis.Addr))
	return rediscache.New(rdb)
}

func newPrayerTimesService(conf *core.Config, cache prayertimes.Cache, logger core.Logger) *prayertimes.Service {
	return prayertimes.NewService(aladhan.NewClient(conf), cache, conf, logger)
}

func newReminder(schedules *schedule.Service, mailer core.EmailService, conf *core.Config, logger core.Logger) *reminder.Service {
	return reminder.NewService(schedules, mailer, conf, logger)
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.Deps{
		Conf:           p.Conf,
		Logger:         p.Logger,
		Validate:       p.Validate,
		Translator:     p.Translator,
		Calendar:       p.Calendar,
		UserSvc:        p.Users,
		ChildSvc:       p.Children,
		PrayerSvc:      p.Prayers,
		ScheduleSvc:    p.Schedules,
		PrayerTimesSvc: p.PrayerTimes,
		Now:            time.Now,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStore))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newCalendar))
	must(c.Provide(user.NewService))
	must(c.Provide(child.NewService))
	must(c.Provide(prayer.NewService))
	must(c.Provide(schedule.NewService))
	must(c.Provide(newPrayerTimesCache))
	must(c.Provide(newPrayerTimesService))
	must(c.Provide(newReminder))
	must(c.Provide(newServer))

	return c
}

// Visualize writes the container's dependency graph in DOT format.
func Visualize(c *dig.Container, w io.Writer) error {
	return dig.Visualize(c, w)
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
