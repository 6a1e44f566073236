package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskdash/task-dashboard-api/internal/api/metrics"
)

const rateLimitWindow = time.Minute

// Limiter abstracts the fixed-window counter (Redis in production).
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit caps requests per client IP for the given scope. A nil limiter or
// a non-positive limit disables the check. When the limiter itself fails the
// request is allowed through (fail open) with a warning, so a Redis outage
// does not take the API down with it.
func RateLimit(limiter Limiter, scope string, perMinute int, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter == nil || perMinute <= 0 {
				return next(c)
			}

			key := scope + ":" + c.RealIP()
			ok, err := limiter.Allow(c.Request().Context(), key, perMinute, rateLimitWindow)
			if err != nil {
				log.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}
			if !ok {
				metrics.RateLimitRejectionsTotal.WithLabelValues(scope).Inc()
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
