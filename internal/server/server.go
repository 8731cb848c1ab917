// Package server exposes a compiled definition over HTTP for inspection.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/toyz/anchor/internal/report"
	"github.com/toyz/anchor/pkg/anchor"
	"github.com/toyz/anchor/pkg/anchor/definition"
	"github.com/toyz/anchor/pkg/anchor/errors"
	"github.com/toyz/anchor/pkg/anchor/factory"
	"github.com/toyz/anchor/pkg/anchor/store"
)

// LoadFunc returns the current definition, compiling it when needed
type LoadFunc func(ctx context.Context) (definition.ContainerDefinition, error)

// HTTPError is the body of every error response
type HTTPError struct {
	StatusCode int      `json:"status_code"`
	Message    string   `json:"message"`
	Code       string   `json:"code,omitempty"`
	Details    []string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *HTTPError) Error() string { return e.Message }

// Server serves the inspection API
type Server struct {
	engine   *echo.Echo
	load     LoadFunc
	stores   store.Stores
	profiles []string
	logger   *zap.Logger
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStores sets the parameter stores definitions are resolved against
func WithStores(stores store.Stores) Option {
	return func(s *Server) {
		s.stores = stores
	}
}

// WithDefaultProfiles sets the profiles used when a request names none
func WithDefaultProfiles(profiles ...string) Option {
	return func(s *Server) {
		s.profiles = profiles
	}
}

// New creates a server over load
func New(load LoadFunc, opts ...Option) *Server {
	s := &Server{
		engine: echo.New(),
		load:   load,
		stores: store.MustStores(store.NewEnvironment()),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine.HideBanner = true
	s.engine.HidePort = true
	s.engine.HTTPErrorHandler = s.handleError
	s.engine.Use(middleware.Recover())
	s.engine.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))

	s.engine.GET("/healthz", s.healthz)
	s.engine.GET("/definition", s.definition)
	s.engine.GET("/services", s.services)
	s.engine.GET("/aliases", s.aliases)
	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler { return s.engine }

// Start serves on addr until ctx is cancelled
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving", zap.String("addr", addr))
		errCh <- s.engine.Start(addr)
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.engine.Shutdown(shutdownCtx)
	}
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": anchor.Version,
	})
}

func (s *Server) definition(c echo.Context) error {
	r, err := s.report(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

func (s *Server) services(c echo.Context) error {
	r, err := s.report(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r.Services)
}

func (s *Server) aliases(c echo.Context) error {
	r, err := s.report(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r.Aliases)
}

func (s *Server) report(c echo.Context) (*report.Report, error) {
	def, err := s.load(c.Request().Context())
	if err != nil {
		return nil, httpError(http.StatusInternalServerError, "definition could not be compiled", err)
	}

	profiles := s.profiles
	if query := c.QueryParam("profiles"); query != "" {
		profiles = definition.ParseProfiles(query).Names()
	}
	view := definition.NewProfilesAwareContainerDefinition(def, profiles...)
	state, err := factory.NewState(view, s.stores, factory.WithStateLogger(s.logger))
	if err != nil {
		return nil, httpError(http.StatusUnprocessableEntity, "definition does not resolve for the requested profiles", err)
	}
	return report.FromState(state), nil
}

func httpError(status int, message string, err error) *HTTPError {
	e := &HTTPError{StatusCode: status, Message: message}
	var multiple *errors.MultipleErrors
	if stderrors.As(err, &multiple) {
		for _, each := range multiple.UnwrapAll() {
			e.Details = append(e.Details, each.Error())
		}
	} else {
		e.Details = []string{err.Error()}
	}
	if code := errors.CodeOf(err); code != errors.UnknownErrorCode {
		e.Code = code.String()
	}
	return e
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var body *HTTPError
	var echoErr *echo.HTTPError
	switch {
	case stderrors.As(err, &body):
	case stderrors.As(err, &echoErr):
		body = &HTTPError{StatusCode: echoErr.Code, Message: strings.ToLower(http.StatusText(echoErr.Code))}
	default:
		body = &HTTPError{StatusCode: http.StatusInternalServerError, Message: err.Error()}
	}

	if body.StatusCode >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("uri", c.Request().RequestURI), zap.Error(err))
	}
	if err := c.JSON(body.StatusCode, body); err != nil {
		s.logger.Warn("failed to write error response", zap.Error(err))
	}
}
