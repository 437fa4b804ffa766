package middleware

import (
	"context"
	"errors"
	"net/http"

	"forklifttracker/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// HTTPError maps a service error onto the status code clients see.
// Errors that are not *services.Error become a generic 500 and are logged.
func HTTPError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		return echo.NewHTTPError(statusFor(svcErr.Kind), svcErr.Message)
	}

	log.Ctx(ctx).Error().Err(err).Msg("Request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}

func statusFor(kind error) int {
	switch kind {
	case services.ErrNotFound:
		return http.StatusNotFound
	case services.ErrForbidden:
		return http.StatusForbidden
	case services.ErrConflict:
		return http.StatusConflict
	case services.ErrValidation:
		return http.StatusBadRequest
	case services.ErrUnauthorized:
		return http.StatusUnauthorized
	case services.ErrRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
