package main

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/fnedigital/genera/apps/api/echo"
	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/core/feedback"
	"github.com/fnedigital/genera/core/navigation"
	"github.com/fnedigital/genera/core/notification"
	"github.com/fnedigital/genera/core/reporting"
	"github.com/fnedigital/genera/core/user"
	emailsvc "github.com/fnedigital/genera/services/email"
	logsvc "github.com/fnedigital/genera/services/logger"
	"github.com/fnedigital/genera/storage/database"
	sqlxrepos "github.com/fnedigital/genera/storage/database/sqlx"
	"github.com/fnedigital/genera/storage/kvstore"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.LoadConfig()
	if err != nil {
		std.Fatalf("loading config: %v", err)
	}
	core.Conf = conf

	// set up logger
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// set up cache
	var cache core.Cache
	if conf.Redis.Enabled {
		cache, err = kvstore.NewRedisCache(conf.Redis, conf.AppName)
		if err != nil {
			logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
		}
	} else {
		cache = kvstore.NewMemoryCache()
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrRepo := sqlxrepos.NewUserRepository(db)
	roleRepo := sqlxrepos.NewRoleRepository(db)

	usrSvc := user.NewService(usrRepo, roleRepo, mailSvc, logger, conf)
	reportingSvc := reporting.NewService(sqlxrepos.NewReportingRepository(db), logger, conf)
	feedbackSvc := feedback.NewService(
		sqlxrepos.NewFeedbackRepository(db), mailSvc, logger,
		func() []mail.Address { return []mail.Address{conf.AdminEmail()} },
	)
	notificationSvc := notification.NewService(sqlxrepos.NewNotificationRepository(db), cache, logger)

	// set up validation
	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate)

	// fail fast on a malformed menu declaration
	if err = navigation.ValidateItems(navigation.DefaultMenu()); err != nil {
		logger.Fatal(fmt.Sprintf("validating navigation menu: %v", err), err)
	}

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// start API server
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	app := echoapi.NewServer(
		&echoapi.Options{
			Address:         conf.Server.Host + ":" + conf.Server.Port,
			UserSvc:         usrSvc,
			RoleRepo:        roleRepo,
			ReportingSvc:    reportingSvc,
			FeedbackSvc:     feedbackSvc,
			NotificationSvc: notificationSvc,
			Cache:           cache,
			Logger:          logger,
			Validate:        validate,
			Translator:      translator,
			Shutdown:        func() { shutdownCh <- syscall.SIGTERM },
		},
	)
	go app.Start()

	sig := <-shutdownCh
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = app.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
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

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return sqlx.NewDb(db, conf.Database.Engine), nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
