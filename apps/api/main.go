package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/article"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/classroom"
	"github.com/trezcool/shule/core/homework"
	"github.com/trezcool/shule/core/randomcall"
	"github.com/trezcool/shule/core/user"
	appfs "github.com/trezcool/shule/fs"
	emailsvc "github.com/trezcool/shule/services/email"
	logsvc "github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/storage/database"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
)

// build is the git version of this program. It is set using build flags.
var build = "dev"

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig(build)
	if err != nil {
		log.Fatalf("loading configuration: %+v", err)
	}

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	if err = database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer func() { _ = db.Close() }()

	if err = database.Migrate(db.DB); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	if err = core.ParseEmailTemplates(appfs.FS); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, conf)
	if err = usrSvc.LoadPermissions(context.Background()); err != nil {
		logger.Fatal(fmt.Sprintf("loading permissions: %v", err), err)
	}
	classSvc := classroom.NewService(sqlxrepos.NewClassRoomRepository(db), usrSvc)
	attendanceSvc := attendance.NewService(sqlxrepos.NewAttendanceRepository(db), classSvc, conf)
	homeworkSvc := homework.NewService(sqlxrepos.NewHomeworkRepository(db), classSvc)
	articleSvc := article.NewService(sqlxrepos.NewArticleRepository(db), classSvc)
	randomSvc := randomcall.NewService(sqlxrepos.NewRandomCallRepository(db), classSvc, nil)

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		SignalShutdown: func() { shutdown <- syscall.SIGTERM },

		UserSvc:       usrSvc,
		ClassSvc:      classSvc,
		AttendanceSvc: attendanceSvc,
		HomeworkSvc:   homeworkSvc,
		ArticleSvc:    articleSvc,
		RandomSvc:     randomSvc,
	})

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API server listening on " + conf.Server.Address())
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-serverErrors:
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Stop(ctx); err != nil {
			logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
