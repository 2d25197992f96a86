package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/authz"
	"github.com/trezcool/shule/core/content"
	"github.com/trezcool/shule/core/course"
	"github.com/trezcool/shule/core/enroll"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/services/email"
	"github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/storage/database"
	"github.com/trezcool/shule/storage/database/sqlx"
	"github.com/trezcool/shule/storage/files"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	if err != nil {
		std.Fatalf("loading config: %v", err)
	}

	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(conf.RollbarToken != "")
	defer logger.Close()

	if err := run(conf, logger); err != nil {
		logger.Fatal("api: fatal", err)
	}
}

func run(conf *core.Config, logger core.Logger) error {
	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		return err
	}
	db, err := database.Open(conf)
	if err != nil {
		return err
	}
	defer db.Close()
	if err = database.Migrate(db); err != nil {
		return err
	}
	sdb := sqlx.NewDb(db, "postgres")

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf.AppName, conf.DefaultFromEmail)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf)
	}
	fileStore, err := files.NewDiskStorage(conf.Uploads.Dir)
	if err != nil {
		return err
	}

	usrSvc := user.NewService(conf, sqlxrepos.NewUserRepository(sdb), mailSvc)
	courseSvc := course.NewService(sqlxrepos.NewCourseRepository(sdb), fileStore)
	enrollSvc := enroll.NewService(sqlxrepos.NewEnrollmentRepository(sdb))
	contentSvc := content.NewService(fileStore)

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	// a caught shutdown error or an OS signal both land here
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	signalShutdown := func() { shutdown <- syscall.SIGTERM }

	app := echoapi.NewServer(conf.Server.Addr(), signalShutdown, &echoapi.Deps{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		UserSvc:    usrSvc,
		CourseSvc:  courseSvc,
		EnrollSvc:  enrollSvc,
		ContentSvc: contentSvc,
		Authz:      authz.NewEvaluator(enrollSvc),
	})

	serverErrs := make(chan error, 1)
	go func() {
		logger.Info("api: listening on " + conf.Server.Addr())
		serverErrs <- app.Start()
	}()

	select {
	case err := <-serverErrs:
		return err
	case sig := <-shutdown:
		logger.Info("api: shutting down: " + sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Stop(ctx); err != nil {
			return err
		}
	}
	return nil
}
