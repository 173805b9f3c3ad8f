package driver

import (
	"fmt"
	"strconv"
	"strings"

	"contact-indexer/domain"
	"contact-indexer/query"
)

// sqlBuilder assembles WHERE clauses from compiled filters. Values are
// always bound parameters; the only strings spliced into SQL are column
// expressions derived from the schema, never caller input.
type sqlBuilder struct {
	conds []string
	args  []interface{}
}

// bind registers a value and returns its placeholder.
func (b *sqlBuilder) bind(v interface{}) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *sqlBuilder) where(cond string) {
	b.conds = append(b.conds, cond)
}

// whereClause renders all conditions AND'd, with a leading WHERE, or an
// empty string when there are none.
func (b *sqlBuilder) whereClause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// columnExpr maps a normalized schema field to its SQL expression. Top-level
// document fields are real columns; metadata fields live in the jsonb bag
// under their normalized names.
func columnExpr(field string) string {
	switch field {
	case ColID:
		return "id"
	case ColDocType:
		return "doc_type"
	case ColTitle:
		return "title"
	case ColContent:
		return "content"
	case ColCreatedAt:
		return "created_at"
	case ColUpdatedAt:
		return "updated_at"
	default:
		return fmt.Sprintf("metadata->>'%s'", sanitizeIdent(field))
	}
}

// numericExpr casts a field expression for range comparison. The timestamp
// columns are already bigint.
func numericExpr(field string) string {
	switch field {
	case ColCreatedAt, ColUpdatedAt:
		return columnExpr(field)
	default:
		return "(" + columnExpr(field) + ")::numeric"
	}
}

// tagMatch checks exact membership. Stored tag lists use the same unit
// separator the shared tag codec writes (chr(31)); a scalar tag value splits
// into a single-element array, so one expression covers both shapes.
func (b *sqlBuilder) tagMatch(field, value string) string {
	return fmt.Sprintf("string_to_array(COALESCE(%s, ''), chr(31)) @> ARRAY[%s]",
		columnExpr(field), b.bind(value))
}

// addFilter translates one compiled filter into a parameterized condition.
func (b *sqlBuilder) addFilter(f query.Filter) {
	switch f.Operator {
	case domain.OpEQ:
		if f.Numeric {
			b.where(fmt.Sprintf("%s = %s", numericExpr(f.Field), b.bind(f.Values[0])))
		} else {
			b.where(b.tagMatch(f.Field, f.Values[0]))
		}
	case domain.OpNE:
		if f.Numeric {
			b.where(fmt.Sprintf("%s <> %s", numericExpr(f.Field), b.bind(f.Values[0])))
		} else {
			b.where("NOT " + b.tagMatch(f.Field, f.Values[0]))
		}
	case domain.OpGT:
		b.where(fmt.Sprintf("%s > %s", numericExpr(f.Field), b.bind(f.Values[0])))
	case domain.OpGTE:
		b.where(fmt.Sprintf("%s >= %s", numericExpr(f.Field), b.bind(f.Values[0])))
	case domain.OpLT:
		b.where(fmt.Sprintf("%s < %s", numericExpr(f.Field), b.bind(f.Values[0])))
	case domain.OpLTE:
		b.where(fmt.Sprintf("%s <= %s", numericExpr(f.Field), b.bind(f.Values[0])))
	case domain.OpIN:
		clauses := make([]string, 0, len(f.Values))
		for _, v := range f.Values {
			if f.Numeric {
				clauses = append(clauses, fmt.Sprintf("%s = %s", numericExpr(f.Field), b.bind(v)))
			} else {
				clauses = append(clauses, b.tagMatch(f.Field, v))
			}
		}
		b.where("(" + strings.Join(clauses, " OR ") + ")")
	}
}

// sanitizeIdent strips everything outside the identifier charset. Inputs
// here come from config-owned schemas, not callers; this is a backstop, not
// an escaping scheme.
func sanitizeIdent(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// escapeLike escapes LIKE wildcards in a user-supplied prefix.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
