package domain

import "fmt"

// FilterOperator is the set of supported filter comparisons.
type FilterOperator string

const (
	OpEQ  FilterOperator = "EQ"
	OpNE  FilterOperator = "NE"
	OpGT  FilterOperator = "GT"
	OpGTE FilterOperator = "GTE"
	OpLT  FilterOperator = "LT"
	OpLTE FilterOperator = "LTE"
	OpIN  FilterOperator = "IN"
)

// ParseFilterOperator validates a caller-supplied operator.
func ParseFilterOperator(s string) (FilterOperator, error) {
	switch FilterOperator(s) {
	case OpEQ, OpNE, OpGT, OpGTE, OpLT, OpLTE, OpIN:
		return FilterOperator(s), nil
	default:
		return "", NewSearchQueryError(CodeInvalidFilter, "unknown filter operator: "+s)
	}
}

// SearchMode selects how free text is compiled into a backend query.
type SearchMode string

const (
	ModeSimple   SearchMode = "simple"
	ModePrefix   SearchMode = "prefix"
	ModeAdvanced SearchMode = "advanced"
)

// ParseSearchMode validates a caller-supplied mode; empty defaults to simple.
func ParseSearchMode(s string) (SearchMode, error) {
	switch SearchMode(s) {
	case "":
		return ModeSimple, nil
	case ModeSimple, ModePrefix, ModeAdvanced:
		return SearchMode(s), nil
	default:
		return "", NewSearchQueryError(CodeInvalidMode, "unknown search mode: "+s)
	}
}

// Filter is one caller-supplied filter condition. Values holds a single
// element except for IN, where it holds the OR'd set.
type Filter struct {
	Field    string
	Operator FilterOperator
	Values   []string
}

// SortDirection orders results ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sort is a caller-supplied sort clause. The inverted-index backend honors at
// most one; the relational backend may honor several.
type Sort struct {
	Field     string
	Direction SortDirection
}

// Highlight requests match fragments for the listed fields wrapped in the
// given tags.
type Highlight struct {
	Fields  []string
	PreTag  string
	PostTag string
}

// MaxSearchLimit caps the page size of any search request.
const MaxSearchLimit = 100

// DefaultSearchLimit applies when the caller does not ask for a page size.
const DefaultSearchLimit = 20

// SearchQuery is one search request against a single index.
type SearchQuery struct {
	Q         string
	Filters   []Filter
	Fields    []string
	Sort      *Sort
	Limit     int
	Offset    int
	Highlight *Highlight
	Mode      SearchMode
	MinRank   float64
}

// Validate checks bounds and enum values before any backend call.
func (q SearchQuery) Validate() error {
	if q.Limit < 0 {
		return NewSearchQueryError(CodeInvalidPagination, "limit cannot be negative")
	}
	if q.Limit > MaxSearchLimit {
		return &SearchQueryError{
			Code:    CodeInvalidPagination,
			Message: fmt.Sprintf("limit exceeds maximum of %d", MaxSearchLimit),
			Details: map[string]string{"limit": fmt.Sprintf("%d", q.Limit)},
		}
	}
	if q.Offset < 0 {
		return NewSearchQueryError(CodeInvalidPagination, "offset cannot be negative")
	}
	if _, err := ParseSearchMode(string(q.Mode)); err != nil {
		return err
	}
	if len(q.Q) > 1000 {
		return NewSearchQueryError(CodeInvalidQuery, "query too long: maximum 1000 characters")
	}
	for _, f := range q.Filters {
		if f.Field == "" {
			return NewSearchQueryError(CodeInvalidFilter, "filter field cannot be empty")
		}
		if _, err := ParseFilterOperator(string(f.Operator)); err != nil {
			return err
		}
		if len(f.Values) == 0 {
			return NewSearchQueryError(CodeInvalidFilter, "filter value cannot be empty: "+f.Field)
		}
	}
	return nil
}

// EffectiveLimit applies the default and the cap.
func (q SearchQuery) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultSearchLimit
	}
	if q.Limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return q.Limit
}
