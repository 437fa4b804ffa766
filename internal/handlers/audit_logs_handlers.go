package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"forklifttracker/internal/models"
	"forklifttracker/internal/services"

	"github.com/labstack/echo/v4"
)

// AuditLogsHandlers handles audit logs related HTTP requests
type AuditLogsHandlers struct {
	auditLogsService services.AuditLogsService
}

// NewAuditLogsHandlers creates a new audit logs handlers instance
func NewAuditLogsHandlers(auditLogsService services.AuditLogsService) *AuditLogsHandlers {
	return &AuditLogsHandlers{auditLogsService: auditLogsService}
}

// ListAuditLogs retrieves audit logs with filtering and pagination. Admin
// access is checked by CompanyAccess.
//
// @Summary Company audit log
// @Tags Companies
// @Security BearerAuth
// @Produce json
// @Param id path string true "Company ID"
// @Param table query string false "Table name"
// @Param action query string false "INSERT, UPDATE or DELETE"
// @Param limit query int false "Page size (default 50, max 1000)"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{}
// @Router /companies/{id}/audit-logs [get]
func (h *AuditLogsHandlers) ListAuditLogs(c echo.Context) error {
	companyID, err := pathID(c, "id", "company")
	if err != nil {
		return err
	}

	filters := &models.AuditLogFilters{}
	if table := strings.TrimSpace(c.QueryParam("table")); table != "" {
		filters.TableName = &table
	}
	if action := strings.ToUpper(strings.TrimSpace(c.QueryParam("action"))); action != "" {
		filters.Action = &action
	}
	if raw := c.QueryParam("limit"); raw != "" {
		if filters.Limit, err = strconv.Atoi(raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a number")
		}
	}
	if raw := c.QueryParam("offset"); raw != "" {
		if filters.Offset, err = strconv.Atoi(raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "offset must be a number")
		}
	}

	logs, err := h.auditLogsService.ListAuditLogs(c.Request().Context(), companyID, filters)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":   logs,
		"total":  len(logs),
		"limit":  filters.Limit,
		"offset": filters.Offset,
	})
}
