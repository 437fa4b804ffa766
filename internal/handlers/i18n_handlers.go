package handlers

import (
	"net/http"
	"strings"

	"forklifttracker/internal/i18n"

	"github.com/labstack/echo/v4"
)

// I18nHandlers serves the string tables used by the front end
type I18nHandlers struct {
	catalog *i18n.Catalog
}

func NewI18nHandlers(catalog *i18n.Catalog) *I18nHandlers {
	return &I18nHandlers{catalog: catalog}
}

// @Summary Supported languages
// @Tags I18n
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /i18n [get]
func (h *I18nHandlers) Languages(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"languages": h.catalog.Languages(),
		"preferred": h.catalog.Negotiate("", c.Request().Header.Get("Accept-Language")),
	})
}

// @Summary String table of one language
// @Tags I18n
// @Produce json
// @Param lang path string true "Language code"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /i18n/{lang} [get]
func (h *I18nHandlers) Table(c echo.Context) error {
	table, ok := h.catalog.Table(strings.ToLower(c.Param("lang")))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Unsupported language")
	}
	return c.JSON(http.StatusOK, table)
}
