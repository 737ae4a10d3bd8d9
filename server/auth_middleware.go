package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-user-service/authorizer"
)

const (
	// ContextKeyPrincipal stores the authenticated principal id
	ContextKeyPrincipal = "principal_id"
	// ContextKeyDecision stores the full access decision
	ContextKeyDecision = "access_decision"
)

// RequireAuth runs the authorizer over the Authorization header. Every deny
// produces the same response body and status, whatever the underlying
// verification failure was.
func (s *Server) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision := s.auth.Authorize(
				c.Request().Header.Get(echo.HeaderAuthorization),
				c.Request().URL.Path,
			)
			if !decision.Allow {
				return c.JSON(http.StatusUnauthorized, errorEnvelope{Error: "invalid credential"})
			}

			c.Set(ContextKeyPrincipal, decision.PrincipalID)
			c.Set(ContextKeyDecision, decision)
			return next(c)
		}
	}
}

// RateLimit throttles by principal using the shared counter. Disabled when
// no limiter is configured; fails open when the counter is unreachable,
// since throttling is best-effort and must not take the API down with it.
func (s *Server) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if s.limiter == nil {
				return next(c)
			}

			principal := Principal(c)
			if principal == "" {
				principal = c.RealIP()
			}

			allowed, err := s.limiter.Allow(c.Request().Context(), principal)
			if err != nil {
				log.Warn().Err(err).Msg("rate limit check failed, allowing request")
				return next(c)
			}
			if !allowed {
				return c.JSON(http.StatusTooManyRequests, errorEnvelope{Error: "rate limit exceeded"})
			}
			return next(c)
		}
	}
}

// Principal returns the authenticated principal id from the request context.
func Principal(c echo.Context) string {
	if id, ok := c.Get(ContextKeyPrincipal).(string); ok {
		return id
	}
	return ""
}

// Decision returns the access decision from the request context.
func Decision(c echo.Context) (authorizer.AccessDecision, bool) {
	decision, ok := c.Get(ContextKeyDecision).(authorizer.AccessDecision)
	return decision, ok
}
