package rest

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"contact-indexer/domain"
)

// SearchResultJSON is one hit in the HTTP response.
type SearchResultJSON struct {
	ID            string              `json:"id"`
	Type          string              `json:"type"`
	Title         string              `json:"title"`
	Content       string              `json:"content"`
	Score         float64             `json:"score"`
	Metadata      map[string]any      `json:"metadata"`
	Highlights    map[string][]string `json:"highlights,omitempty"`
	MatchedFields []string            `json:"matchedFields,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// SearchResponseJSON is the successful search envelope.
type SearchResponseJSON struct {
	Success bool               `json:"success"`
	Query   string             `json:"query"`
	Total   int64              `json:"total"`
	Page    int                `json:"page"`
	Limit   int                `json:"limit"`
	TookMs  int64              `json:"tookMs"`
	Results []SearchResultJSON `json:"results"`
}

// Search handles GET /v1/search.
func (h *Handler) Search(c echo.Context) error {
	ctx := c.Request().Context()

	docType := domain.DocumentTypeCard
	if v := c.QueryParam("type"); v != "" {
		parsed, err := domain.ParseDocumentType(v)
		if err != nil {
			return writeError(c, err)
		}
		docType = parsed
	}

	q, err := h.buildQuery(c, docType)
	if err != nil {
		return writeError(c, err)
	}

	page := 1
	if v := c.QueryParam("page"); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil || page < 1 {
			return badRequest(c, domain.CodeInvalidPagination, "page must be a positive integer")
		}
	}
	q.Offset = (page - 1) * q.EffectiveLimit()

	resp, err := h.search.Execute(ctx, docType, *q)
	if err != nil {
		h.logger.Error("search failed", "query", q.Q, "type", string(docType), "error", err)
		return writeError(c, err)
	}

	h.logger.Info("search ok",
		"query", q.Q,
		"type", string(docType),
		"total", resp.Total,
		"took_ms", resp.Took.Milliseconds(),
	)

	out := SearchResponseJSON{
		Success: true,
		Query:   resp.Query,
		Total:   resp.Total,
		Page:    page,
		Limit:   q.EffectiveLimit(),
		TookMs:  resp.Took.Milliseconds(),
		Results: make([]SearchResultJSON, 0, len(resp.Results)),
	}
	for _, r := range resp.Results {
		out.Results = append(out.Results, SearchResultJSON{
			ID:            r.ID,
			Type:          string(r.Document.Type),
			Title:         r.Document.Title,
			Content:       r.Document.Content,
			Score:         r.Score,
			Metadata:      metadataJSON(r.Document.Metadata),
			Highlights:    r.Highlights,
			MatchedFields: r.MatchedFields,
			CreatedAt:     r.Document.CreatedAt,
			UpdatedAt:     r.Document.UpdatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// buildQuery translates query parameters into a SearchQuery. Validation of
// bounds and enums stays in the domain; this only parses shapes.
func (h *Handler) buildQuery(c echo.Context, docType domain.DocumentType) (*domain.SearchQuery, error) {
	q := &domain.SearchQuery{Q: c.QueryParam("q")}

	mode, err := domain.ParseSearchMode(c.QueryParam("mode"))
	if err != nil {
		return nil, err
	}
	q.Mode = mode

	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, domain.NewSearchQueryError(domain.CodeInvalidPagination, "limit must be an integer")
		}
		q.Limit = n
	}

	if v := c.QueryParam("minRank"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return nil, domain.NewSearchQueryError(domain.CodeInvalidQuery, "minRank must be a non-negative number")
		}
		q.MinRank = f
	}

	for _, tag := range splitParam(c.QueryParam("tags")) {
		q.Filters = append(q.Filters, domain.Filter{
			Field:    domain.MetaTags,
			Operator: domain.OpEQ,
			Values:   []string{tag},
		})
	}

	if v := c.QueryParam("userId"); v != "" {
		q.Filters = append(q.Filters, domain.Filter{
			Field:    domain.MetaUserID,
			Operator: domain.OpEQ,
			Values:   []string{v},
		})
	}

	if v := c.QueryParam("dateFrom"); v != "" {
		epoch, err := parseDateBound(v)
		if err != nil {
			return nil, domain.NewSearchQueryError(domain.CodeInvalidFilter, "dateFrom must be a date or epoch seconds")
		}
		q.Filters = append(q.Filters, domain.Filter{
			Field:    "createdAt",
			Operator: domain.OpGTE,
			Values:   []string{epoch},
		})
	}
	if v := c.QueryParam("dateTo"); v != "" {
		epoch, err := parseDateBound(v)
		if err != nil {
			return nil, domain.NewSearchQueryError(domain.CodeInvalidFilter, "dateTo must be a date or epoch seconds")
		}
		q.Filters = append(q.Filters, domain.Filter{
			Field:    "createdAt",
			Operator: domain.OpLTE,
			Values:   []string{epoch},
		})
	}

	// company narrows by company name. With no other text it searches the
	// company-name field alone; combined with q it joins the term list.
	if company := strings.TrimSpace(c.QueryParam("company")); company != "" {
		if strings.TrimSpace(q.Q) == "" {
			q.Q = company
			if docType == domain.DocumentTypeCard {
				q.Fields = []string{domain.MetaCompanyName}
			} else {
				q.Fields = []string{"title"}
			}
		} else {
			q.Q = q.Q + " " + company
		}
	}

	if sortBy := c.QueryParam("sortBy"); sortBy != "" {
		dir := domain.SortDesc
		if c.QueryParam("sort") == "asc" {
			dir = domain.SortAsc
		}
		q.Sort = &domain.Sort{Field: sortBy, Direction: dir}
	}

	if fields := splitParam(c.QueryParam("highlight")); len(fields) > 0 {
		q.Highlight = &domain.Highlight{Fields: fields}
	}

	return q, nil
}

// SuggestionJSON is one autocomplete candidate.
type SuggestionJSON struct {
	Value    string  `json:"value"`
	Category string  `json:"category"`
	Count    int64   `json:"count"`
	Score    float64 `json:"score"`
}

// SuggestionsResponseJSON is the successful suggestions envelope.
type SuggestionsResponseJSON struct {
	Success     bool             `json:"success"`
	Prefix      string           `json:"prefix"`
	Suggestions []SuggestionJSON `json:"suggestions"`
}

// Suggestions handles GET /v1/search/suggestions.
func (h *Handler) Suggestions(c echo.Context) error {
	ctx := c.Request().Context()

	prefix := strings.TrimSpace(c.QueryParam("prefix"))
	if len([]rune(prefix)) < 2 {
		return badRequest(c, domain.CodeInvalidPrefix, "prefix must be at least 2 characters")
	}

	category, err := domain.ParseSuggestionCategory(c.QueryParam("type"))
	if err != nil {
		return writeError(c, err)
	}

	max := 0
	if v := c.QueryParam("maxSuggestions"); v != "" {
		max, err = strconv.Atoi(v)
		if err != nil || max < 0 {
			return badRequest(c, domain.CodeInvalidPagination, "maxSuggestions must be a non-negative integer")
		}
	}

	suggestions, err := h.suggest.Execute(ctx, domain.DocumentTypeCard, prefix, category, max, c.QueryParam("userId"))
	if err != nil {
		h.logger.Error("suggestions failed", "prefix", prefix, "error", err)
		return writeError(c, err)
	}

	out := SuggestionsResponseJSON{
		Success:     true,
		Prefix:      prefix,
		Suggestions: make([]SuggestionJSON, 0, len(suggestions)),
	}
	for _, s := range suggestions {
		out.Suggestions = append(out.Suggestions, SuggestionJSON{
			Value:    s.Value,
			Category: string(s.Category),
			Count:    s.Count,
			Score:    s.Score,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func metadataJSON(meta map[string]domain.FieldValue) map[string]any {
	out := make(map[string]any, len(meta))
	for name, value := range meta {
		switch value.Kind() {
		case domain.FieldValueNumber:
			out[name] = value.NumberValue()
		case domain.FieldValueTags:
			out[name] = value.TagsValue()
		default:
			out[name] = value.TextValue()
		}
	}
	return out
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDateBound accepts epoch seconds, RFC3339, or a plain date and returns
// the epoch-seconds string both backends filter on.
func parseDateBound(v string) (string, error) {
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		return v, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return strconv.FormatInt(t.Unix(), 10), nil
		}
	}
	return "", domain.NewSearchQueryError(domain.CodeInvalidFilter, "unparseable date: "+v)
}
