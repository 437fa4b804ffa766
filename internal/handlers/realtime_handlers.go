package handlers

import (
	"net/http"

	"forklifttracker/internal/middleware"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Upgrader serves websocket connections for an authenticated user.
type Upgrader interface {
	Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error
}

type RealtimeHandlers struct {
	hub Upgrader
}

func NewRealtimeHandlers(hub Upgrader) *RealtimeHandlers {
	return &RealtimeHandlers{hub: hub}
}

// Connect upgrades to a websocket that receives forklift and company events.
//
// @Summary Event stream
// @Tags Realtime
// @Security BearerAuth
// @Param token query string false "Access token for clients that cannot set headers"
// @Success 101
// @Router /ws [get]
func (h *RealtimeHandlers) Connect(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	if err := h.hub.Serve(c.Response(), c.Request(), userID); err != nil {
		// the upgrader has already written the error response
		log.Ctx(c.Request().Context()).Debug().Err(err).Msg("Websocket upgrade failed")
	}
	return nil
}
