// README: Bookmark handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"zekken/internal/modules/search"
)

type BookmarkHandler struct {
	search *search.Service
}

func NewBookmarkHandler(svc *search.Service) *BookmarkHandler {
	return &BookmarkHandler{search: svc}
}

func (h *BookmarkHandler) List(c *gin.Context) {
	writeJSON(c, http.StatusOK, nonNil(h.search.Bookmarks()))
}

type bookmarkRequest struct {
	Name    string `json:"name"`
	Address string `json:"address" binding:"required"`
}

func (h *BookmarkHandler) Save(c *gin.Context) {
	var req bookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "address is required")
		return
	}
	b, err := h.search.AddOrUpdateBookmark(c.Request.Context(), req.Name, req.Address)
	if err != nil {
		writeSearchError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, b)
}

type toggleRequest struct {
	Address string `json:"address" binding:"required"`
}

type toggleResponse struct {
	Bookmarked bool              `json:"bookmarked"`
	Bookmarks  []search.Bookmark `json:"bookmarks"`
}

func (h *BookmarkHandler) Toggle(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "address is required")
		return
	}
	on := h.search.ToggleBookmark(c.Request.Context(), req.Address)
	writeJSON(c, http.StatusOK, toggleResponse{Bookmarked: on, Bookmarks: nonNil(h.search.Bookmarks())})
}

func (h *BookmarkHandler) Remove(c *gin.Context) {
	if err := h.search.RemoveBookmark(c.Request.Context(), c.Param("id")); err != nil {
		writeSearchError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
