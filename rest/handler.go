// Package rest exposes the search service over HTTP.
package rest

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"contact-indexer/usecase"
)

// Handler wires the HTTP routes to the usecases.
type Handler struct {
	search  *usecase.SearchDocumentsUsecase
	suggest *usecase.SuggestValuesUsecase
	indexer *usecase.IndexDocumentsUsecase
	health  *usecase.HealthUsecase
	logger  *slog.Logger
}

func NewHandler(
	search *usecase.SearchDocumentsUsecase,
	suggest *usecase.SuggestValuesUsecase,
	indexer *usecase.IndexDocumentsUsecase,
	health *usecase.HealthUsecase,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		search:  search,
		suggest: suggest,
		indexer: indexer,
		health:  health,
		logger:  logger,
	}
}

// RegisterRoutes mounts every route under /v1/search.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/v1/search")
	g.GET("", h.Search)
	g.GET("/suggestions", h.Suggestions)
	g.GET("/health", h.Health)
	g.GET("/stats", h.Stats)
	g.POST("/reindex", h.Reindex)
	g.POST("/index/:type/:id", h.IndexDocument)
	g.DELETE("/index/:type/:id", h.RemoveDocument)
}
