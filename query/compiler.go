// Package query compiles caller-supplied search queries into a neutral form
// both search backends render natively. Keeping one compiler in front of both
// drivers is what stops filter and ranking semantics from drifting apart.
package query

import (
	"strconv"
	"strings"

	"contact-indexer/domain"
)

// Term is one unit of free text after mode processing.
type Term struct {
	Text string
	// Wildcard marks a term for prefix matching.
	Wildcard bool
	// Raw marks a term that already carried backend syntax and must be
	// passed through unmodified.
	Raw bool
}

// Filter is one translated filter condition with a normalized field name.
type Filter struct {
	Field    string
	Operator domain.FilterOperator
	Values   []string
	Numeric  bool
}

// Compiled is the backend-neutral query. Drivers render it into their own
// syntax; they never see the original SearchQuery.
type Compiled struct {
	Mode      domain.SearchMode
	Terms     []Term
	RawQuery  string
	MatchAll  bool
	Fields    []string
	Filters   []Filter
	Sort      *domain.Sort
	Limit     int
	Offset    int
	Highlight *domain.Highlight
	MinRank   float64
}

// Compile validates a query against an index schema and translates it.
func Compile(q domain.SearchQuery, cfg domain.SearchIndexConfig) (Compiled, error) {
	if err := q.Validate(); err != nil {
		return Compiled{}, err
	}

	mode := q.Mode
	if mode == "" {
		mode = domain.ModeSimple
	}

	compiled := Compiled{
		Mode:    mode,
		Limit:   q.EffectiveLimit(),
		Offset:  q.Offset,
		MinRank: q.MinRank,
	}

	compileText(&compiled, q.Q, mode)

	fields, err := compileFieldRestriction(q.Fields, cfg)
	if err != nil {
		return Compiled{}, err
	}
	compiled.Fields = fields

	for _, f := range q.Filters {
		cf, err := compileFilter(f, cfg)
		if err != nil {
			return Compiled{}, err
		}
		compiled.Filters = append(compiled.Filters, cf)
	}

	if q.Sort != nil {
		sort, err := compileSort(*q.Sort, cfg)
		if err != nil {
			return Compiled{}, err
		}
		compiled.Sort = sort
	}

	if q.Highlight != nil {
		hl, err := compileHighlight(*q.Highlight, cfg)
		if err != nil {
			return Compiled{}, err
		}
		compiled.Highlight = hl
	}

	return compiled, nil
}

// compileText applies the mode-specific text processing. An absent, empty,
// or "*" query is match-all: filters alone determine the result set, and no
// wildcarding is required.
func compileText(c *Compiled, q string, mode domain.SearchMode) {
	q = strings.TrimSpace(q)
	if q == "" || q == "*" {
		c.MatchAll = true
		return
	}

	switch mode {
	case domain.ModeAdvanced:
		// Pre-built boolean syntax; tokens are not rewritten.
		c.RawQuery = q
	case domain.ModePrefix:
		for _, tok := range strings.Fields(q) {
			if isPlainTerm(tok) {
				c.Terms = append(c.Terms, Term{Text: tok, Wildcard: true})
			} else {
				c.Terms = append(c.Terms, Term{Text: tok, Raw: true})
			}
		}
	default:
		for _, tok := range strings.Fields(q) {
			c.Terms = append(c.Terms, Term{Text: tok})
		}
	}
}

// isPlainTerm reports whether a token may safely get a trailing wildcard.
// Tokens that already carry reserved syntax (wildcards, field selectors,
// parentheses, quoting, boolean operators, negation) pass through unchanged
// so the enhancement never produces invalid or unintended queries.
func isPlainTerm(tok string) bool {
	switch tok {
	case "AND", "OR", "NOT", "&", "|":
		return false
	}
	if strings.HasPrefix(tok, "@") || strings.HasPrefix(tok, "-") {
		return false
	}
	return !strings.ContainsAny(tok, `*()"'{}[]~:`)
}

func compileFieldRestriction(fields []string, cfg domain.SearchIndexConfig) ([]string, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		name := NormalizeField(f)
		spec, ok := cfg.Field(name)
		if !ok || spec.Type != domain.FieldTypeText || spec.NoIndex {
			return nil, &domain.SearchQueryError{
				Code:    domain.CodeInvalidQuery,
				Message: "field restriction must name an indexed TEXT field",
				Details: map[string]string{"field": f},
			}
		}
		out = append(out, name)
	}
	return out, nil
}

// compileFilter translates one filter to the backend-neutral form: EQ/NE to
// (negated) exact tag match, range operators to numeric ranges, IN to an
// OR'd set of exact matches.
func compileFilter(f domain.Filter, cfg domain.SearchIndexConfig) (Filter, error) {
	name := NormalizeField(f.Field)
	spec, ok := cfg.Field(name)
	if !ok || spec.NoIndex {
		return Filter{}, &domain.SearchQueryError{
			Code:    domain.CodeInvalidFilter,
			Message: "filter references an unindexed field",
			Details: map[string]string{"field": f.Field},
		}
	}

	switch f.Operator {
	case domain.OpGT, domain.OpGTE, domain.OpLT, domain.OpLTE:
		if spec.Type != domain.FieldTypeNumeric {
			return Filter{}, &domain.SearchQueryError{
				Code:    domain.CodeInvalidFilter,
				Message: "range operators require a NUMERIC field",
				Details: map[string]string{"field": f.Field, "operator": string(f.Operator)},
			}
		}
	case domain.OpEQ, domain.OpNE, domain.OpIN:
		if spec.Type == domain.FieldTypeText {
			return Filter{}, &domain.SearchQueryError{
				Code:    domain.CodeInvalidFilter,
				Message: "exact-match operators require a TAG or NUMERIC field",
				Details: map[string]string{"field": f.Field, "operator": string(f.Operator)},
			}
		}
	}

	// Numeric filter values end up spliced into backend filter syntax, so
	// anything that is not a number is rejected here rather than in the
	// drivers.
	if spec.Type == domain.FieldTypeNumeric {
		for _, v := range f.Values {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return Filter{}, &domain.SearchQueryError{
					Code:    domain.CodeInvalidFilter,
					Message: "numeric filter values must be numbers",
					Details: map[string]string{"field": f.Field, "value": v},
				}
			}
		}
	}

	return Filter{
		Field:    name,
		Operator: f.Operator,
		Values:   f.Values,
		Numeric:  spec.Type == domain.FieldTypeNumeric,
	}, nil
}

func compileSort(s domain.Sort, cfg domain.SearchIndexConfig) (*domain.Sort, error) {
	name := NormalizeField(s.Field)
	spec, ok := cfg.Field(name)
	if !ok || !spec.Sortable {
		return nil, &domain.SearchQueryError{
			Code:    domain.CodeInvalidQuery,
			Message: "sort field is not sortable",
			Details: map[string]string{"field": s.Field},
		}
	}
	dir := s.Direction
	if dir != domain.SortAsc {
		dir = domain.SortDesc
	}
	return &domain.Sort{Field: name, Direction: dir}, nil
}

func compileHighlight(h domain.Highlight, cfg domain.SearchIndexConfig) (*domain.Highlight, error) {
	fields := make([]string, 0, len(h.Fields))
	for _, f := range h.Fields {
		name := NormalizeField(f)
		spec, ok := cfg.Field(name)
		if !ok || spec.Type != domain.FieldTypeText {
			return nil, &domain.SearchQueryError{
				Code:    domain.CodeInvalidQuery,
				Message: "highlight field must be a TEXT field",
				Details: map[string]string{"field": f},
			}
		}
		fields = append(fields, name)
	}
	pre, post := h.PreTag, h.PostTag
	if pre == "" {
		pre = "<em>"
	}
	if post == "" {
		post = "</em>"
	}
	return &domain.Highlight{Fields: fields, PreTag: pre, PostTag: post}, nil
}

// PlainTerms returns the term texts without wildcard markers, used by the
// assembler's matched-field scan.
func (c Compiled) PlainTerms() []string {
	if c.RawQuery != "" {
		return strings.Fields(strings.Map(stripOperators, c.RawQuery))
	}
	terms := make([]string, 0, len(c.Terms))
	for _, t := range c.Terms {
		terms = append(terms, strings.Trim(t.Text, `*"()@-`))
	}
	return terms
}

func stripOperators(r rune) rune {
	switch r {
	case '(', ')', '"', '*', '&', '|', '!':
		return ' '
	}
	return r
}
