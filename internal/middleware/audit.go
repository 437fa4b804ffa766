package middleware

import (
	"net/http"
	"strings"
	"time"

	"forklifttracker/internal/common"
	"forklifttracker/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AuditMiddleware records company-scoped HTTP requests in the audit log
type AuditMiddleware struct {
	auditService services.AuditLogsService
}

// NewAuditMiddleware creates a new audit middleware instance
func NewAuditMiddleware(auditService services.AuditLogsService) *AuditMiddleware {
	return &AuditMiddleware{
		auditService: auditService,
	}
}

// AuditRequest logs mutations and rejected requests on routes guarded by
// CompanyAccess. Requests without a company in context are skipped.
func (m *AuditMiddleware) AuditRequest() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			ctx := c.Request().Context()
			companyID, ok := common.GetCompanyIDFromContext(ctx)
			if !ok {
				return err
			}

			method := c.Request().Method
			if !shouldAudit(method, err) {
				return err
			}

			var userPtr *uuid.UUID
			if userID, ok := common.GetUserIDFromContext(ctx); ok {
				userPtr = &userID
			}

			data := map[string]interface{}{
				"method":     method,
				"path":       c.Request().URL.Path,
				"user_agent": c.Request().UserAgent(),
				"ip":         c.RealIP(),
				"status":     statusOf(c, err),
				"timestamp":  time.Now().UTC().Format(time.RFC3339),
				"headers":    sanitizeHeaders(c.Request().Header),
			}
			if err != nil {
				data["error"] = err.Error()
			}

			action := method + " " + c.Path()
			if logErr := m.auditService.LogActivity(ctx, companyID, "http_requests", c.Path(), action, userPtr, nil, data); logErr != nil {
				log.Ctx(ctx).Error().Err(logErr).Msg("Failed to log audit activity")
			}
			return err
		}
	}
}

func shouldAudit(method string, reqErr error) bool {
	if reqErr != nil {
		return true
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func statusOf(c echo.Context, err error) int {
	if httpErr, ok := err.(*echo.HTTPError); ok {
		return httpErr.Code
	}
	if err != nil {
		return http.StatusInternalServerError
	}
	return c.Response().Status
}

var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
}

// sanitizeHeaders removes sensitive headers before logging
func sanitizeHeaders(headers http.Header) map[string]interface{} {
	sanitized := make(map[string]interface{}, len(headers))
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = "[REDACTED]"
			continue
		}
		sanitized[key] = values
	}
	return sanitized
}
