package middleware

import (
	"context"
	"net/http"

	"forklifttracker/internal/common"
	"forklifttracker/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CompanyAccess guards /companies/:id routes.
type CompanyAccess struct {
	access services.AccessService
}

func NewCompanyAccess(access services.AccessService) *CompanyAccess {
	return &CompanyAccess{access: access}
}

// RequireMember admits active members of the company named by the :id param.
func (m *CompanyAccess) RequireMember(denied string) echo.MiddlewareFunc {
	return m.guard(func(ctx context.Context, userID, companyID uuid.UUID) error {
		return m.access.RequireMember(ctx, userID, companyID, denied)
	})
}

// RequireAdmin admits the creator and active admins of the company.
func (m *CompanyAccess) RequireAdmin(denied string) echo.MiddlewareFunc {
	return m.guard(func(ctx context.Context, userID, companyID uuid.UUID) error {
		return m.access.RequireAdmin(ctx, userID, companyID, denied)
	})
}

func (m *CompanyAccess) guard(check func(ctx context.Context, userID, companyID uuid.UUID) error) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := UserID(c)
			if err != nil {
				return err
			}

			companyID, err := uuid.Parse(c.Param("id"))
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "Invalid company ID")
			}

			ctx := c.Request().Context()
			if err := check(ctx, userID, companyID); err != nil {
				return HTTPError(ctx, err)
			}

			ctx = context.WithValue(ctx, common.CompanyIDKey, companyID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
