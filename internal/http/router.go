// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"zekken/internal/http/handlers"
	"zekken/internal/http/middleware"
	"zekken/internal/modules/search"
)

type RouterDeps struct {
	Search  *search.Service
	Suggest handlers.QueryListener
	Hub     *handlers.Hub
	Log     *slog.Logger
	// RateLimit is requests per second per client for the search endpoints.
	RateLimit float64
	RateBurst int
	// CORSOrigins enables CORS for a front end served from another origin.
	CORSOrigins []string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log))
	if len(deps.CORSOrigins) > 0 {
		r.Use(middleware.CORS(deps.CORSOrigins))
	}

	limited := middleware.NewIPRateLimiter(deps.RateLimit, deps.RateBurst, deps.Log).RateLimit()

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	sessionHandler := handlers.NewSessionHandler(deps.Search)
	api.GET("/session", sessionHandler.Get)
	api.PUT("/form", sessionHandler.UpdateForm)
	api.POST("/search", limited, sessionHandler.Search)
	api.POST("/recent/:index/select", limited, sessionHandler.SelectRecent)
	api.PUT("/view/filter", sessionHandler.SetFilter)
	api.PUT("/view/sort", sessionHandler.SetSort)
	api.PUT("/view/fare", sessionHandler.SetFare)

	bookmarkHandler := handlers.NewBookmarkHandler(deps.Search)
	api.GET("/bookmarks", bookmarkHandler.List)
	api.POST("/bookmarks", bookmarkHandler.Save)
	api.POST("/bookmarks/toggle", bookmarkHandler.Toggle)
	api.DELETE("/bookmarks/:id", bookmarkHandler.Remove)

	suggestionHandler := handlers.NewSuggestionHandler(deps.Suggest)
	api.POST("/suggestions", suggestionHandler.Keystroke)

	locationHandler := handlers.NewLocationHandler(deps.Search)
	api.POST("/location", locationHandler.Update)

	api.GET("/events", deps.Hub.Stream(deps.Search))

	return r
}
