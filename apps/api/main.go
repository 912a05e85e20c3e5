package main

import (
	"context"
	"expvar"
	"fmt"
	"io"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	dig_container "github.com/mutabaah/mutabaah/apps/api/di/dig"
	echoapi "github.com/mutabaah/mutabaah/apps/api/echo"
	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/prayer"
	"github.com/mutabaah/mutabaah/core/schedule"
	"github.com/mutabaah/mutabaah/core/user"
	"github.com/mutabaah/mutabaah/fs"
	"github.com/mutabaah/mutabaah/services/reminder"
)

func main() {
	c := dig_container.New()
	if os.Getenv("DI_GRAPH") != "" {
		must(dig_container.Visualize(c, os.Stdout))
		return
	}

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		dbLoggerParam dig_container.DBLoggerParam,
		closer io.Closer,
		validate *validator.Validate,
		translator ut.Translator,
		usrSvc *user.Service,
		remind *reminder.Service,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

		core.InitValidators(validate, translator)
		user.InitValidators(validate, translator)
		prayer.InitValidators(validate, translator)
		schedule.InitValidators(validate, translator)

		core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, apiLogger, true)

		user.LoadCommonPasswords(appfs.FS, appfs.CommonPasswords, apiLogger)

		dbLogger := dbLoggerParam.Logger
		defer func() {
			if err := closer.Close(); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
		defer apiLogger.Info("Application stopped")

		admin := conf.DefaultAdmin
		if usr, created, err := usrSvc.EnsureUser(context.Background(), admin.Username, "Admin", admin.Password); err != nil {
			apiLogger.Fatal(fmt.Sprintf("creating default admin: %v", err), err)
		} else if created {
			apiLogger.Info(fmt.Sprintf("default admin %q created", usr.Username))
		}

		// =========================================================================
		// Start Reminder Job

		if conf.Reminder.Enabled {
			if err := remind.Start(); err != nil {
				apiLogger.Fatal(fmt.Sprintf("starting reminder job: %v", err), err)
			}
			defer remind.Stop()
		}

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Start API Service

		go func() {
			server.Start()
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			apiLogger.Fatal(fmt.Sprintf("server error: %v", err), err)

		case sig := <-server.ShutdownSignal():
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			// asking listener to shut down and shed load
			if err := server.Shutdown(ctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					apiLogger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
