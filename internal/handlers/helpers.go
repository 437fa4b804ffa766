package handlers

import (
	"net/http"
	"strings"

	"forklifttracker/internal/middleware"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// fail maps a service error to an HTTP error for the current request.
func fail(c echo.Context, err error) error {
	return middleware.HTTPError(c.Request().Context(), err)
}

// pathID parses a UUID path parameter; label names it in the 400 message.
func pathID(c echo.Context, name, label string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+label+" ID")
	}
	return id, nil
}

// optionalQueryID parses an optional UUID query parameter.
func optionalQueryID(c echo.Context, name, label string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+label+" ID")
	}
	return &id, nil
}

func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	return nil
}
