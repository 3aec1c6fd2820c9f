package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/core/feedback"
	"github.com/fnedigital/genera/core/notification"
	"github.com/fnedigital/genera/core/reporting"
	"github.com/fnedigital/genera/core/role"
	"github.com/fnedigital/genera/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		UserSvc         *user.Service
		RoleRepo        role.AdminRepository
		ReportingSvc    *reporting.Service
		FeedbackSvc     *feedback.Service
		NotificationSvc *notification.Service

		Cache      core.Cache
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		// Shutdown is signalled when an unrecoverable error is caught.
		Shutdown func()
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.opts.Shutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig())

	registerUserAPI(v1, jwt, s.opts)
	registerRoleAPI(v1, jwt, s.opts)
	registerNavigationAPI(v1, jwt, s.opts)
	registerReportingAPI(v1, jwt, s.opts)
	registerFeedbackAPI(v1, jwt, s.opts)
	registerNotificationAPI(v1, jwt, s.opts)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Genera API!")
}
