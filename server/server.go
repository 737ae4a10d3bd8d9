// Package server exposes the user lifecycle service over HTTP and owns the
// mapping from the service's error kinds to protocol status codes.
package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/jrsteele09/go-user-service/authorizer"
	"github.com/jrsteele09/go-user-service/users"
)

// RateLimiter reports whether the caller identified by identifier is within
// its request budget. *ratelimit.Limiter satisfies it; tests supply a stub.
type RateLimiter interface {
	Allow(ctx context.Context, identifier string) (bool, error)
}

type Server struct {
	echo    *echo.Echo
	users   *users.Service
	auth    *authorizer.Authorizer
	limiter RateLimiter
}

type Option func(*Server)

// WithRateLimiter enables per-principal throttling backed by a shared
// counter. Without it, requests are not rate limited.
func WithRateLimiter(limiter RateLimiter) Option {
	return func(s *Server) {
		s.limiter = limiter
	}
}

func New(userService *users.Service, auth *authorizer.Authorizer, options ...Option) (*Server, error) {
	if userService == nil {
		return nil, errors.New("[server.New] user service is required")
	}
	if auth == nil {
		return nil, errors.New("[server.New] authorizer is required")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	s := &Server{
		echo:  e,
		users: userService,
		auth:  auth,
	}

	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	return s, nil
}

func (s *Server) initRoutes() {
	s.echo.GET("/healthz", s.handleHealth)

	api := s.echo.Group("/api/v1", s.RequireAuth(), s.RateLimit())
	api.POST("/users", s.handleCreateUser)
	api.GET("/users/:id", s.handleGetUser)
	api.DELETE("/users/:id", s.handleDeleteUser)
}

// ServeHTTP lets the server sit behind a plain *http.Server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
