// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"zekken/internal/ai"
	"zekken/internal/modules/search"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeSearchError(c *gin.Context, err error) {
	var aiErr *ai.Error
	switch {
	case errors.Is(err, search.ErrValidation):
		writeError(c, http.StatusBadRequest, search.UserMessage(err))
	case errors.Is(err, search.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, search.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, search.ErrSuperseded):
		writeError(c, http.StatusConflict, err.Error())
	case errors.As(err, &aiErr):
		writeJSON(c, http.StatusBadGateway, errorResponse{Error: aiErr.Message, Kind: aiErr.Kind.String()})
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
