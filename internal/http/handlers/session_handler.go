// README: Session handlers: form fields, search submission, recent searches and the result view.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"zekken/internal/modules/search"
)

type SessionHandler struct {
	search *search.Service
}

func NewSessionHandler(svc *search.Service) *SessionHandler {
	return &SessionHandler{search: svc}
}

func (h *SessionHandler) respond(c *gin.Context) {
	writeJSON(c, http.StatusOK, NewSessionResponse(h.search.State()))
}

func (h *SessionHandler) Get(c *gin.Context) {
	h.respond(c)
}

type formRequest struct {
	Pickup  *string `json:"pickup"`
	Dropoff *string `json:"dropoff"`
	Seats   *int    `json:"seats"`
}

func (h *SessionHandler) UpdateForm(c *gin.Context) {
	var req formRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Pickup != nil {
		h.search.SetPickup(*req.Pickup)
	}
	if req.Dropoff != nil {
		h.search.SetDropoff(*req.Dropoff)
	}
	if req.Seats != nil {
		h.search.SetSeats(*req.Seats)
	}
	h.respond(c)
}

type searchRequest struct {
	Pickup  string `json:"pickup"`
	Dropoff string `json:"dropoff"`
	Seats   int    `json:"seats"`
}

// Search blocks until the provider answers. The search outlives a dropped connection;
// its outcome still reaches event stream subscribers.
func (h *SessionHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid body")
		return
	}
	ctx := context.WithoutCancel(c.Request.Context())
	err := h.search.Submit(ctx, search.SearchParams{Pickup: req.Pickup, Dropoff: req.Dropoff, Seats: req.Seats})
	if err != nil {
		writeSearchError(c, err)
		return
	}
	h.respond(c)
}

func (h *SessionHandler) SelectRecent(c *gin.Context) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid index")
		return
	}
	if err := h.search.SelectRecentAt(context.WithoutCancel(c.Request.Context()), i); err != nil {
		writeSearchError(c, err)
		return
	}
	h.respond(c)
}

type filterRequest struct {
	CabType string `json:"cabType"`
}

func (h *SessionHandler) SetFilter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid body")
		return
	}
	h.search.SetFilter(req.CabType)
	h.respond(c)
}

type sortRequest struct {
	Order string `json:"order" binding:"required"`
}

func (h *SessionHandler) SetSort(c *gin.Context) {
	var req sortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "order is required")
		return
	}
	order, err := search.ParseSortOrder(req.Order)
	if err != nil {
		writeSearchError(c, err)
		return
	}
	if err := h.search.SetSort(order); err != nil {
		writeSearchError(c, err)
		return
	}
	h.respond(c)
}

type fareRequest struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

func (h *SessionHandler) SetFare(c *gin.Context) {
	var req fareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid body")
		return
	}
	switch {
	case req.Min != nil && req.Max != nil:
		h.search.SetFareWindow(search.FareRange{Min: *req.Min, Max: *req.Max})
	case req.Min != nil:
		h.search.SetFareMin(*req.Min)
	case req.Max != nil:
		h.search.SetFareMax(*req.Max)
	default:
		writeError(c, http.StatusBadRequest, "min or max is required")
		return
	}
	h.respond(c)
}
