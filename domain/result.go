package domain

import "time"

// SearchResult is one ranked hit.
type SearchResult struct {
	ID         string
	Score      float64
	Document   IndexableDocument
	Highlights map[string][]string
	// MatchedFields is a best-effort UI hint listing which text fields
	// contain a query term. It may diverge from the backend's internal
	// match logic under prefix or boolean modes.
	MatchedFields []string
}

// SearchResponse is the paginated answer to one SearchQuery. Total counts
// all matches regardless of pagination; Took is query wall-clock time.
type SearchResponse struct {
	Results []SearchResult
	Total   int64
	Query   string
	Took    time.Duration
}

// SuggestionCategory names the fields autocomplete draws from.
type SuggestionCategory string

const (
	SuggestName    SuggestionCategory = "name"
	SuggestCompany SuggestionCategory = "company"
	SuggestTitle   SuggestionCategory = "title"
)

// ParseSuggestionCategory validates a caller-supplied category; empty means
// all categories.
func ParseSuggestionCategory(s string) (SuggestionCategory, error) {
	switch SuggestionCategory(s) {
	case "", SuggestName, SuggestCompany, SuggestTitle:
		return SuggestionCategory(s), nil
	default:
		return "", NewSearchQueryError(CodeInvalidType, "unknown suggestion type: "+s)
	}
}

// Suggestion is one ranked autocomplete candidate.
type Suggestion struct {
	Value    string
	Category SuggestionCategory
	Count    int64
	Score    float64
}

// IndexInfo is the health/freshness signal for one index.
type IndexInfo struct {
	IndexName     string
	DocumentCount int64
	LastUpdatedAt time.Time
}

// ValueCount is one distinct field value and its occurrence count, the raw
// material for suggestions.
type ValueCount struct {
	Value string
	Count int64
}
