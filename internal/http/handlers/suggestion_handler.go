package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"zekken/internal/modules/suggest"
)

// QueryListener is satisfied by *suggest.Fetcher.
type QueryListener interface {
	OnQueryChange(text string, field suggest.Field)
}

type SuggestionHandler struct {
	fetcher QueryListener
}

func NewSuggestionHandler(fetcher QueryListener) *SuggestionHandler {
	return &SuggestionHandler{fetcher: fetcher}
}

type keystrokeRequest struct {
	Field string `json:"field" binding:"required"`
	Text  string `json:"text"`
}

// Keystroke accepts the latest input text; suggestions arrive on the event stream.
func (h *SuggestionHandler) Keystroke(c *gin.Context) {
	var req keystrokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "field is required")
		return
	}
	field, err := suggest.ParseField(req.Field)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	h.fetcher.OnQueryChange(req.Text, field)
	c.Status(http.StatusAccepted)
}
