package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"forklifttracker/internal/middleware"
	"forklifttracker/internal/services"

	"github.com/labstack/echo/v4"
)

// CompanyHandlers handles company and membership requests
type CompanyHandlers struct {
	companyService services.CompanyService
}

func NewCompanyHandlers(companyService services.CompanyService) *CompanyHandlers {
	return &CompanyHandlers{companyService: companyService}
}

type CreateCompanyRequest struct {
	Name string `json:"name"`
}

type JoinCompanyRequest struct {
	JoinCode string `json:"join_code"`
}

// CreateCompany creates a company with the caller as admin.
//
// @Summary Create a company
// @Tags Companies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body CreateCompanyRequest true "Company"
// @Success 201 {object} models.Company
// @Router /companies [post]
func (h *CompanyHandlers) CreateCompany(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	var req CreateCompanyRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	company, err := h.companyService.Create(c.Request().Context(), userID, req.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, company)
}

// JoinCompany adds the caller to the company owning the join code.
//
// @Summary Join a company
// @Tags Companies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body JoinCompanyRequest true "Join code"
// @Success 200 {object} models.Company
// @Failure 404 {object} map[string]string
// @Router /companies/join [post]
func (h *CompanyHandlers) JoinCompany(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	var req JoinCompanyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.JoinCode) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Join code is required")
	}

	company, err := h.companyService.Join(c.Request().Context(), userID, req.JoinCode)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, company)
}

// ListCompanies lists the caller's companies with their membership flags.
//
// @Summary List my companies
// @Tags Companies
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.CompanyMembership
// @Router /companies [get]
func (h *CompanyHandlers) ListCompanies(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	companies, err := h.companyService.List(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, companies)
}

// @Summary Get a company
// @Tags Companies
// @Security BearerAuth
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {object} models.Company
// @Failure 403 {object} map[string]string
// @Router /companies/{id} [get]
func (h *CompanyHandlers) GetCompany(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	companyID, err := pathID(c, "id", "company")
	if err != nil {
		return err
	}
	company, err := h.companyService.Get(c.Request().Context(), userID, companyID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, company)
}

// IsAdmin answers with a bare JSON boolean.
//
// @Summary Is the caller a company admin
// @Tags Companies
// @Security BearerAuth
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {boolean} boolean
// @Router /companies/{id}/is-admin [get]
func (h *CompanyHandlers) IsAdmin(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	companyID, err := pathID(c, "id", "company")
	if err != nil {
		return err
	}
	isAdmin, err := h.companyService.IsAdmin(c.Request().Context(), userID, companyID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, isAdmin)
}

// @Summary List company users
// @Tags Companies
// @Security BearerAuth
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {array} models.CompanyUser
// @Failure 403 {object} map[string]string
// @Router /companies/{id}/users [get]
func (h *CompanyHandlers) ListUsers(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	companyID, err := pathID(c, "id", "company")
	if err != nil {
		return err
	}
	users, err := h.companyService.ListUsers(c.Request().Context(), userID, companyID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// UpdateUser changes the admin and blocked flags of a member.
//
// @Summary Update a company member
// @Tags Companies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Company ID"
// @Param userId path string true "User ID"
// @Param body body services.UpdateMemberRequest true "Flags"
// @Success 200 {object} models.CompanyUser
// @Failure 409 {object} map[string]string
// @Router /companies/{id}/users/{userId} [patch]
func (h *CompanyHandlers) UpdateUser(c echo.Context) error {
	actorID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	companyID, err := pathID(c, "id", "company")
	if err != nil {
		return err
	}
	targetID, err := pathID(c, "userId", "user")
	if err != nil {
		return err
	}
	var req services.UpdateMemberRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.companyService.UpdateUser(c.Request().Context(), actorID, companyID, targetID, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// @Summary Regenerate the join code
// @Tags Companies
// @Security BearerAuth
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {object} map[string]string
// @Router /companies/{id}/regenerate-code [post]
func (h *CompanyHandlers) RegenerateCode(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	companyID, err := pathID(c, "id", "company")
	if err != nil {
		return err
	}
	code, err := h.companyService.RegenerateCode(c.Request().Context(), userID, companyID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"join_code": code})
}

// @Summary Delete a company
// @Tags Companies
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Success 204
// @Router /companies/{id} [delete]
func (h *CompanyHandlers) DeleteCompany(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	companyID, err := pathID(c, "id", "company")
	if err != nil {
		return err
	}
	if err := h.companyService.Delete(c.Request().Context(), userID, companyID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ServiceDue lists forklifts overdue or due within ?days=N. Membership is
// checked by CompanyAccess.
//
// @Summary Forklifts due for service
// @Tags Companies
// @Security BearerAuth
// @Produce json
// @Param id path string true "Company ID"
// @Param days query int false "Window in days (default 7)"
// @Success 200 {object} models.ServiceDueSummary
// @Router /companies/{id}/service-due [get]
func (h *CompanyHandlers) ServiceDue(c echo.Context) error {
	companyID, err := pathID(c, "id", "company")
	if err != nil {
		return err
	}
	days := 0
	if raw := c.QueryParam("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be a number")
		}
	}

	summary, err := h.companyService.ServiceDue(c.Request().Context(), companyID, days)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
