package handlers

import (
	"net/http"

	"forklifttracker/internal/middleware"
	"forklifttracker/internal/services"

	"github.com/labstack/echo/v4"
)

// ForkliftHandlers handles forklift and document requests
type ForkliftHandlers struct {
	forkliftService services.ForkliftService
}

func NewForkliftHandlers(forkliftService services.ForkliftService) *ForkliftHandlers {
	return &ForkliftHandlers{forkliftService: forkliftService}
}

// ListForklifts returns forklifts of every company the caller is an active member of.
//
// @Summary List forklifts
// @Tags Forklifts
// @Security BearerAuth
// @Produce json
// @Param company_id query string false "Restrict to one company"
// @Success 200 {array} models.Forklift
// @Router /forklifts [get]
func (h *ForkliftHandlers) ListForklifts(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	companyID, err := optionalQueryID(c, "company_id", "company")
	if err != nil {
		return err
	}

	forklifts, err := h.forkliftService.List(c.Request().Context(), userID, companyID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, forklifts)
}

// CreateForklift stores a forklift owned by the caller. documents_<N>h
// arrays carry base64 data URLs.
//
// @Summary Create a forklift
// @Tags Forklifts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body services.ForkliftRequest true "Forklift"
// @Success 201 {object} models.Forklift
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /forklifts [post]
func (h *ForkliftHandlers) CreateForklift(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	var req services.ForkliftRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	forklift, err := h.forkliftService.Create(c.Request().Context(), userID, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, forklift)
}

// @Summary Get a forklift
// @Tags Forklifts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Forklift ID"
// @Success 200 {object} models.Forklift
// @Failure 404 {object} map[string]string
// @Router /forklifts/{id} [get]
func (h *ForkliftHandlers) GetForklift(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	forkliftID, err := pathID(c, "id", "forklift")
	if err != nil {
		return err
	}

	forklift, err := h.forkliftService.Get(c.Request().Context(), userID, forkliftID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, forklift)
}

// UpdateForklift applies a partial update; absent fields are left alone.
//
// @Summary Update a forklift
// @Tags Forklifts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Forklift ID"
// @Param body body services.ForkliftRequest true "Fields to change"
// @Success 200 {object} models.Forklift
// @Router /forklifts/{id} [patch]
func (h *ForkliftHandlers) UpdateForklift(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	forkliftID, err := pathID(c, "id", "forklift")
	if err != nil {
		return err
	}
	var req services.ForkliftRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	forklift, err := h.forkliftService.Update(c.Request().Context(), userID, forkliftID, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, forklift)
}

// @Summary Delete a forklift
// @Tags Forklifts
// @Security BearerAuth
// @Param id path string true "Forklift ID"
// @Success 204
// @Router /forklifts/{id} [delete]
func (h *ForkliftHandlers) DeleteForklift(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	forkliftID, err := pathID(c, "id", "forklift")
	if err != nil {
		return err
	}
	if err := h.forkliftService.Delete(c.Request().Context(), userID, forkliftID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// @Summary List forklift documents
// @Tags Forklifts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Forklift ID"
// @Success 200 {array} models.ForkliftDocument
// @Router /forklifts/{id}/documents [get]
func (h *ForkliftHandlers) ListDocuments(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	forkliftID, err := pathID(c, "id", "forklift")
	if err != nil {
		return err
	}

	docs, err := h.forkliftService.ListDocuments(c.Request().Context(), userID, forkliftID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, docs)
}

// @Summary Delete a forklift document
// @Tags Forklifts
// @Security BearerAuth
// @Param id path string true "Forklift ID"
// @Param docId path string true "Document ID"
// @Success 204
// @Router /forklifts/{id}/documents/{docId} [delete]
func (h *ForkliftHandlers) DeleteDocument(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	forkliftID, err := pathID(c, "id", "forklift")
	if err != nil {
		return err
	}
	docID, err := pathID(c, "docId", "document")
	if err != nil {
		return err
	}
	if err := h.forkliftService.DeleteDocument(c.Request().Context(), userID, forkliftID, docID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
