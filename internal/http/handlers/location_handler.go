// README: Location handler; applies a browser-reported position to the pickup field.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"zekken/internal/modules/location"
	"zekken/internal/modules/search"
	"zekken/internal/types"
)

type LocationHandler struct {
	search *search.Service
}

func NewLocationHandler(svc *search.Service) *LocationHandler {
	return &LocationHandler{search: svc}
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	// Error carries the browser's failure reason instead of a position.
	Error string `json:"error"`
}

func (h *LocationHandler) Update(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid body")
		return
	}

	var loc location.Reported
	switch {
	case req.Error != "":
		loc.Err = location.ErrorFromReason(req.Error)
	case req.Latitude == nil || req.Longitude == nil:
		writeError(c, http.StatusBadRequest, "latitude and longitude are required")
		return
	default:
		loc.Position = types.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	if err := h.search.UseCurrentLocation(c.Request.Context(), loc); err != nil {
		writeError(c, http.StatusUnprocessableEntity, location.Message(err))
		return
	}
	writeJSON(c, http.StatusOK, NewSessionResponse(h.search.State()))
}
