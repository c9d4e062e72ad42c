package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/academy"
	"github.com/breakthefear/btf/core/activity"
	"github.com/breakthefear/btf/core/fee"
	"github.com/breakthefear/btf/core/payment"
	"github.com/breakthefear/btf/core/student"
	"github.com/breakthefear/btf/core/user"
)

type (
	// Deps are the services the API is built on.
	Deps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Users      *user.Service
		Academy    *academy.Service
		Students   *student.Service
		Payments   *payment.Service
		Activity   *activity.Service
		Ledger     *fee.Ledger
		Desk       *fee.Desk
		Reporter   *fee.Reporter
	}

	Server struct {
		conf     *core.Config
		deps     *Deps
		app      *echo.Echo
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps *Deps) *Server {
	s := &Server{
		conf:     deps.Conf,
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf, deps.Users),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if s.conf.Debug {
		s.app.Logger.SetLevel(log.DEBUG)
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = s.conf.Debug && !s.conf.TestMode

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.auth.jwtConfig())

	registerUserAPI(v1, jwt, s.auth, s.deps.Users, s.deps.Validate)
	authed := v1.Group("", jwt, actorMiddleware)
	registerAcademyAPI(authed, s.deps.Academy)
	registerStudentAPI(authed.Group("/students"), s.deps.Students, s.deps.Ledger, s.deps.Payments)
	registerPaymentAPI(authed.Group("/payments"), s.deps.Payments, s.deps.Desk)
	registerReportAPI(authed, s.deps.Reporter, s.deps.Activity)
}

// Start listens on the configured address; failures are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// Token issues a bearer token for usr.
func (s *Server) Token(usr user.User) (string, error) {
	return s.auth.GenerateToken(s.auth.userClaims(usr))
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.conf.AppName+" API!")
}
