package rest

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"contact-indexer/domain"
	"contact-indexer/monitor"
	"contact-indexer/usecase"
)

// IndexInfoJSON is one index's state in health and stats responses.
type IndexInfoJSON struct {
	IndexName     string    `json:"indexName,omitempty"`
	DocumentCount int64     `json:"documentCount"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	Error         string    `json:"error,omitempty"`
}

// HealthResponseJSON is the GET /v1/search/health body.
type HealthResponseJSON struct {
	Status   string                   `json:"status"`
	Database DatabaseHealthJSON       `json:"database"`
	Indexes  map[string]IndexInfoJSON `json:"indexes"`
	Metrics  monitor.Snapshot         `json:"metrics"`
}

type DatabaseHealthJSON struct {
	Connected      bool  `json:"connected"`
	ResponseTimeMs int64 `json:"responseTimeMs"`
}

// Health handles GET /v1/search/health. An unhealthy backend answers 503 so
// load balancers can act on the status code alone.
func (h *Handler) Health(c echo.Context) error {
	report := h.health.Execute(c.Request().Context())

	out := HealthResponseJSON{
		Status: string(report.Status),
		Database: DatabaseHealthJSON{
			Connected:      report.Backend.Connected,
			ResponseTimeMs: report.Backend.ResponseTime.Milliseconds(),
		},
		Indexes: make(map[string]IndexInfoJSON, len(report.Indexes)),
		Metrics: report.Metrics,
	}
	for docType, idx := range report.Indexes {
		info := IndexInfoJSON{Error: idx.Error}
		if idx.Info != nil {
			info.IndexName = idx.Info.IndexName
			info.DocumentCount = idx.Info.DocumentCount
			info.LastUpdatedAt = idx.Info.LastUpdatedAt
		}
		out.Indexes[string(docType)] = info
	}

	status := http.StatusOK
	if report.Status == usecase.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, out)
}

// ReindexRequest is the POST /v1/search/reindex body.
type ReindexRequest struct {
	Table string `json:"table"`
}

// ReindexResponseJSON reports one completed rebuild.
type ReindexResponseJSON struct {
	Success   bool   `json:"success"`
	JobID     string `json:"jobId"`
	Cards     int    `json:"cards"`
	Companies int    `json:"companies"`
	Failed    int    `json:"failed"`
	TookMs    int64  `json:"tookMs"`
}

// Reindex handles POST /v1/search/reindex. The rebuild runs synchronously;
// the response carries the per-type counts.
func (h *Handler) Reindex(c echo.Context) error {
	ctx := c.Request().Context()

	var req ReindexRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, domain.CodeInvalidTable, "request body must be JSON with a table field")
	}

	var result *usecase.ReindexResult
	var err error
	switch req.Table {
	case "cards":
		result, err = h.indexer.ReindexCards(ctx)
	case "companies":
		result, err = h.indexer.ReindexCompanies(ctx)
	case "all":
		result, err = h.indexer.ReindexAll(ctx)
	default:
		return badRequest(c, domain.CodeInvalidTable, "table must be cards, companies, or all")
	}
	if err != nil {
		h.logger.Error("reindex failed", "table", req.Table, "error", err)
		return writeError(c, err)
	}

	h.logger.Info("reindex completed",
		"job.id", result.JobID,
		"table", req.Table,
		"cards", result.Cards,
		"companies", result.Companies,
		"failed", result.Failed,
		"took_ms", result.Took.Milliseconds(),
	)

	return c.JSON(http.StatusOK, ReindexResponseJSON{
		Success:   true,
		JobID:     result.JobID,
		Cards:     result.Cards,
		Companies: result.Companies,
		Failed:    result.Failed,
		TookMs:    result.Took.Milliseconds(),
	})
}

// StatsResponseJSON is the GET /v1/search/stats body.
type StatsResponseJSON struct {
	Success bool                     `json:"success"`
	Indexes map[string]IndexInfoJSON `json:"indexes"`
}

// Stats handles GET /v1/search/stats.
func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.indexer.Stats(c.Request().Context())
	if err != nil {
		h.logger.Error("stats failed", "error", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, StatsResponseJSON{
		Success: true,
		Indexes: map[string]IndexInfoJSON{
			string(domain.DocumentTypeCard): {
				IndexName:     stats.Cards.IndexName,
				DocumentCount: stats.Cards.DocumentCount,
				LastUpdatedAt: stats.Cards.LastUpdatedAt,
			},
			string(domain.DocumentTypeCompany): {
				IndexName:     stats.Companies.IndexName,
				DocumentCount: stats.Companies.DocumentCount,
				LastUpdatedAt: stats.Companies.LastUpdatedAt,
			},
		},
	})
}

// IndexDocument handles POST /v1/search/index/:type/:id: read the record
// from the primary store and upsert its document.
func (h *Handler) IndexDocument(c echo.Context) error {
	ctx := c.Request().Context()

	docType, err := domain.ParseDocumentType(c.Param("type"))
	if err != nil {
		return writeError(c, err)
	}
	id := c.Param("id")

	if docType == domain.DocumentTypeCard {
		err = h.indexer.IndexCardByID(ctx, id)
	} else {
		err = h.indexer.IndexCompanyByID(ctx, id)
	}
	if err != nil {
		h.logger.Error("index document failed", "type", string(docType), "doc_id", id, "error", err)
		return writeError(c, err)
	}

	h.logger.Info("document indexed", "type", string(docType), "doc_id", id)
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// RemoveDocument handles DELETE /v1/search/index/:type/:id. Removing an
// absent document succeeds.
func (h *Handler) RemoveDocument(c echo.Context) error {
	ctx := c.Request().Context()

	docType, err := domain.ParseDocumentType(c.Param("type"))
	if err != nil {
		return writeError(c, err)
	}
	id := c.Param("id")

	if err := h.indexer.RemoveDocument(ctx, docType, id); err != nil {
		h.logger.Error("remove document failed", "type", string(docType), "doc_id", id, "error", err)
		return writeError(c, err)
	}

	h.logger.Info("document removed", "type", string(docType), "doc_id", id)
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
