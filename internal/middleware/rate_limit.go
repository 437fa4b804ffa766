package middleware

import (
	"net/http"
	"strconv"
	"time"

	"forklifttracker/internal/caching"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// RateLimit allows limit requests per client IP within window. A cache
// failure lets the request through.
func RateLimit(cacheSvc caching.CacheService, scope string, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := scope + ":" + c.RealIP()
			limited, err := cacheSvc.IsRateLimited(c.Request().Context(), key, limit, window)
			if err != nil {
				log.Ctx(c.Request().Context()).Warn().Err(err).Str("scope", scope).Msg("Rate limit check failed")
				return next(c)
			}
			if limited {
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, try again later")
			}
			return next(c)
		}
	}
}
