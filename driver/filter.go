package driver

import (
	"fmt"
	"strings"

	"contact-indexer/domain"
	"contact-indexer/query"
)

// escapeFilterValue escapes special characters in Meilisearch filter values.
func escapeFilterValue(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	return value
}

func renderValue(v string, numeric bool) string {
	if numeric {
		return v
	}
	return fmt.Sprintf("\"%s\"", escapeFilterValue(v))
}

// renderMeiliFilter translates one compiled filter into Meilisearch filter
// syntax. The compiler has already validated fields and operators; anything
// unexpected here is a programming error, rendered as an always-false clause
// rather than an injectable string.
func renderMeiliFilter(f query.Filter) string {
	switch f.Operator {
	case domain.OpEQ:
		return fmt.Sprintf("%s = %s", f.Field, renderValue(f.Values[0], f.Numeric))
	case domain.OpNE:
		return fmt.Sprintf("%s != %s", f.Field, renderValue(f.Values[0], f.Numeric))
	case domain.OpGT:
		return fmt.Sprintf("%s > %s", f.Field, f.Values[0])
	case domain.OpGTE:
		return fmt.Sprintf("%s >= %s", f.Field, f.Values[0])
	case domain.OpLT:
		return fmt.Sprintf("%s < %s", f.Field, f.Values[0])
	case domain.OpLTE:
		return fmt.Sprintf("%s <= %s", f.Field, f.Values[0])
	case domain.OpIN:
		rendered := make([]string, 0, len(f.Values))
		for _, v := range f.Values {
			rendered = append(rendered, renderValue(v, f.Numeric))
		}
		return fmt.Sprintf("%s IN [%s]", f.Field, strings.Join(rendered, ", "))
	default:
		return "id = \"\""
	}
}

// renderMeiliFilters combines all compiled filters with AND.
func renderMeiliFilters(filters []query.Filter) string {
	if len(filters) == 0 {
		return ""
	}
	clauses := make([]string, 0, len(filters))
	for _, f := range filters {
		clauses = append(clauses, renderMeiliFilter(f))
	}
	return strings.Join(clauses, " AND ")
}

// userScopeFilter renders the per-user suggestion scope.
func userScopeFilter(userID string) string {
	return fmt.Sprintf("%s = \"%s\"", query.MetadataColumn(domain.MetaUserID), escapeFilterValue(userID))
}
