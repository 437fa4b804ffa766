package middleware

import (
	"net/url"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ContextLogger attaches a request-scoped zerolog logger carrying the request ID.
// It must run after echo's RequestID middleware.
func ContextLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			logger := log.With().Str("request_id", requestID).Logger()
			c.SetRequest(c.Request().WithContext(logger.WithContext(c.Request().Context())))
			return next(c)
		}
	}
}

// RequestLogger writes one structured line per request.
func RequestLogger() echo.MiddlewareFunc {
	return echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			var event *zerolog.Event
			switch {
			case v.Status >= 500:
				event = log.Ctx(c.Request().Context()).Error().Err(v.Error)
			case v.Status >= 400:
				event = log.Ctx(c.Request().Context()).Warn()
			default:
				event = log.Ctx(c.Request().Context()).Info()
			}
			event.
				Str("method", v.Method).
				Str("uri", redactURI(v.URI)).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

// redactedParams are query parameters that carry credentials.
var redactedParams = []string{"token"}

// redactURI masks credential query parameters so tokens never reach the logs.
func redactURI(uri string) string {
	u, err := url.ParseRequestURI(uri)
	if err != nil || u.RawQuery == "" {
		return uri
	}
	query := u.Query()
	changed := false
	for _, name := range redactedParams {
		if query.Has(name) {
			query.Set(name, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return uri
	}
	u.RawQuery = query.Encode()
	return u.RequestURI()
}
