package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-user-service/users"
)

// errorEnvelope is the wire shape for every error response.
type errorEnvelope struct {
	Error      string   `json:"error"`
	Violations []string `json:"violations,omitempty"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateUser(c echo.Context) error {
	var params users.CreateParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, errorEnvelope{
			Error:      "invalid request body",
			Violations: []string{"body must be valid JSON"},
		})
	}

	user, err := s.users.Create(c.Request().Context(), params)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (s *Server) handleGetUser(c echo.Context) error {
	user, err := s.users.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (s *Server) handleDeleteUser(c echo.Context) error {
	if err := s.users.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// writeError maps the service's closed error set onto status codes. The
// kinds are exhaustive: anything unrecognized is treated as a repository
// failure rather than leaked to the caller.
func (s *Server) writeError(c echo.Context, err error) error {
	var validationErr *users.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusBadRequest, errorEnvelope{
			Error:      "validation failed",
			Violations: validationErr.Violations,
		})
	}

	var existsErr *users.AlreadyExistsError
	if errors.As(err, &existsErr) {
		return c.JSON(http.StatusConflict, errorEnvelope{Error: existsErr.Error()})
	}

	var notFoundErr *users.NotFoundError
	if errors.As(err, &notFoundErr) {
		return c.JSON(http.StatusNotFound, errorEnvelope{Error: notFoundErr.Error()})
	}

	// Repository failures: log the cause internally, return a generic body.
	log.Error().
		Err(err).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Str("path", c.Request().URL.Path).
		Msg("store call failed")
	return c.JSON(http.StatusBadGateway, errorEnvelope{Error: "upstream store failure"})
}
