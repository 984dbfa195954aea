package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/article"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/classroom"
	"github.com/trezcool/shule/core/homework"
	"github.com/trezcool/shule/core/randomcall"
	"github.com/trezcool/shule/core/user"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
		SignalShutdown func()

		UserSvc       *user.Service
		ClassSvc      *classroom.Service
		AttendanceSvc *attendance.Service
		HomeworkSvc   *homework.Service
		ArticleSvc    *article.Service
		RandomSvc     *randomcall.Service
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	initAuth(opts.Conf)
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(api, jwt, s.opts.UserSvc, s.opts.Validate, s.opts.Translator)
	registerClassRoomAPI(api, jwt, s.opts.ClassSvc, s.opts.UserSvc, s.opts.Validate)
	registerAttendanceAPI(api, jwt, s.opts.AttendanceSvc, s.opts.UserSvc, s.opts.Validate)
	registerHomeworkAPI(api, jwt, s.opts.HomeworkSvc, s.opts.UserSvc, s.opts.Validate)
	registerArticleAPI(api, jwt, s.opts.ArticleSvc, s.opts.UserSvc, s.opts.Validate)
	registerRandomCallAPI(api, jwt, s.opts.RandomSvc, s.opts.UserSvc, s.opts.Validate)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Conf.Server.Address())
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Shule API!")
}
