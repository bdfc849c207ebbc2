package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof on the default mux

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	echoapi "github.com/Jaimin17/Zenith-School-Backend/apps/api/echo"
	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/attendance"
	"github.com/Jaimin17/Zenith-School-Backend/core/lesson"
	"github.com/Jaimin17/Zenith-School-Backend/core/school"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
	"github.com/Jaimin17/Zenith-School-Backend/services/cache"
	"github.com/Jaimin17/Zenith-School-Backend/services/email"
	"github.com/Jaimin17/Zenith-School-Backend/services/logger"
	"github.com/Jaimin17/Zenith-School-Backend/services/storage"
	"github.com/Jaimin17/Zenith-School-Backend/services/tasks"
	"github.com/Jaimin17/Zenith-School-Backend/storage/database"
	"github.com/Jaimin17/Zenith-School-Backend/storage/database/sqlboiler"
)

// TODO: rate limiting & CSRF
func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	zl, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("api"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	defer logger.Sync()

	dbLogger := logsvc.NewRollbarLogger(zl.Named("db"), conf)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()
	tx := core.NewTransactor(db)
	repo := boiledrepos.NewRepository(db)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	files := storage.NewLocal(conf.Upload, logger)
	metrics := echoapi.NewMetrics("zenith", prometheus.DefaultRegisterer)

	usrDeps := user.Deps{Files: files, Logger: logger}
	if conf.Redis.Addr != "" {
		rc := cache.NewRevocationCache(cache.NewClient(conf.Redis), conf.Server.JWTRefreshExpirationDelta, logger)
		if !rc.Healthy(context.Background()) {
			logger.Warn(fmt.Sprintf("redis at %s is unreachable; revocation lookups will hit the database", conf.Redis.Addr))
		}
		usrDeps.Cache = rc
	}
	usrSvc := user.NewService(tx, repo, mailSvc, conf, usrDeps)
	schoolSvc := school.NewService(tx, repo, conf, school.Deps{Files: files, Mail: mailSvc, Metrics: metrics})
	lessonSvc := lesson.NewService(tx, repo, conf, lesson.Deps{Files: files, Metrics: metrics})
	attendanceSvc := attendance.NewService(tx, repo, metrics)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - Prometheus metrics of the API.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	http.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Scheduled Tasks

	scheduler := tasks.NewRegistry(logger)
	if err = tasks.RegisterDefaults(scheduler, conf, usrSvc, logger); err != nil {
		logger.Fatal(fmt.Sprintf("registering tasks: %v", err), err)
	}
	scheduler.Start()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			UserSvc:       usrSvc,
			SchoolSvc:     schoolSvc,
			LessonSvc:     lessonSvc,
			AttendanceSvc: attendanceSvc,
			Validate:      validate,
			Translator:    translator,
			Metrics:       metrics,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
	}

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err = scheduler.Stop(ctx); err != nil {
		logger.Warn(fmt.Sprintf("scheduled tasks still running: %v", err), err)
	}

	// asking listener to shutdown and shed load
	if err = server.Shutdown(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

		if err = server.Close(); err != nil {
			logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
