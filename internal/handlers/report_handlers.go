package handlers

import (
	"net/http"
	"strings"

	"forklifttracker/internal/i18n"
	"forklifttracker/internal/middleware"
	"forklifttracker/internal/services"

	"github.com/labstack/echo/v4"
)

// ReportHandlers serves print previews and PDF service sheets
type ReportHandlers struct {
	reportService services.ReportService
	catalog       *i18n.Catalog
}

func NewReportHandlers(reportService services.ReportService, catalog *i18n.Catalog) *ReportHandlers {
	return &ReportHandlers{reportService: reportService, catalog: catalog}
}

// language picks ?lang=, then Accept-Language, then the default.
func (h *ReportHandlers) language(c echo.Context) string {
	return h.catalog.Negotiate(c.QueryParam("lang"), c.Request().Header.Get("Accept-Language"))
}

// PrintForklift renders the print-preview page of one forklift.
//
// @Summary Print preview
// @Tags Reports
// @Security BearerAuth
// @Produce html
// @Param id path string true "Forklift ID"
// @Param lang query string false "en or sv"
// @Success 200 {string} string
// @Router /forklifts/{id}/print [get]
func (h *ReportHandlers) PrintForklift(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	forkliftID, err := pathID(c, "id", "forklift")
	if err != nil {
		return err
	}

	page, err := h.reportService.PrintForklift(c.Request().Context(), userID, forkliftID, h.language(c))
	if err != nil {
		return fail(c, err)
	}
	return c.HTMLBlob(http.StatusOK, page)
}

// PrintCustomer renders every visible forklift of one customer.
//
// @Summary Customer print preview
// @Tags Reports
// @Security BearerAuth
// @Produce html
// @Param customer query string true "Customer name"
// @Param company_id query string false "Restrict to one company"
// @Param lang query string false "en or sv"
// @Success 200 {string} string
// @Router /forklifts/print [get]
func (h *ReportHandlers) PrintCustomer(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	customer := strings.TrimSpace(c.QueryParam("customer"))
	if customer == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "customer is required")
	}
	companyID, err := optionalQueryID(c, "company_id", "company")
	if err != nil {
		return err
	}

	page, err := h.reportService.PrintCustomer(c.Request().Context(), userID, companyID, customer, h.language(c))
	if err != nil {
		return fail(c, err)
	}
	return c.HTMLBlob(http.StatusOK, page)
}

// ServiceSheet stores a PDF service sheet and returns a download link.
//
// @Summary Generate a service sheet
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Param id path string true "Forklift ID"
// @Param lang query string false "en or sv"
// @Success 200 {object} services.ServiceSheet
// @Router /forklifts/{id}/service-sheet [post]
func (h *ReportHandlers) ServiceSheet(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	forkliftID, err := pathID(c, "id", "forklift")
	if err != nil {
		return err
	}

	sheet, err := h.reportService.GenerateServiceSheet(c.Request().Context(), userID, forkliftID, h.language(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sheet)
}
