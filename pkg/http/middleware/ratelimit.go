package middleware

import (
	"context"
	"net/http"

	applogger "AstroTransits/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Allower is satisfied by the rate limiters in internal/service/ratelimit.
type Allower interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit rejects requests over the client's budget with 429. The client is
// identified by its real IP. Limiter failures let the request through.
func RateLimit(limiter Allower, l *applogger.Logger, skip func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skip != nil && skip(c) {
				return next(c)
			}

			ok, err := limiter.Allow(c.Request().Context(), c.RealIP())
			if err != nil {
				l.Warn("rate limiter unavailable, allowing request",
					applogger.Error(err),
					applogger.String("remote", c.RealIP()),
				)
				return next(c)
			}
			if !ok {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": "rate limit exceeded",
				})
			}
			return next(c)
		}
	}
}
