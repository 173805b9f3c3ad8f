package gateway

import (
	"sort"
	"strings"
	"time"

	"contact-indexer/domain"
	"contact-indexer/driver"
	"contact-indexer/query"
)

// fallbackScore substitutes for hits whose backend exposed no numeric rank;
// downstream sort-by-rank logic still needs a rank field.
const fallbackScore = 1.0

// assembleResult turns one raw hit back into a domain result: flattened
// metadata_* columns re-nest into the metadata map, delimited tag strings
// decode with the shared codec, epoch integers become timestamps, and
// highlight wrappers remap to field-keyed fragment lists.
func assembleResult(hit driver.SearchHit, compiled query.Compiled) domain.SearchResult {
	doc := domain.IndexableDocument{
		Metadata: make(map[string]domain.FieldValue),
	}

	for col, value := range hit.Fields {
		switch col {
		case driver.ColID:
			doc.ID = value
		case driver.ColDocType:
			doc.Type = domain.DocumentType(value)
		case driver.ColTitle:
			doc.Title = value
		case driver.ColContent:
			doc.Content = value
		case driver.ColCreatedAt:
			doc.CreatedAt = time.Unix(int64(domain.DecodeNumber(value)), 0).UTC()
		case driver.ColUpdatedAt:
			doc.UpdatedAt = time.Unix(int64(domain.DecodeNumber(value)), 0).UTC()
		default:
			name, ok := query.IsMetadataColumn(col)
			if !ok {
				continue
			}
			doc.Metadata[name] = decodeMetadataValue(name, value)
		}
	}

	score := hit.Score
	if !hit.HasScore {
		score = fallbackScore
	}

	return domain.SearchResult{
		ID:            doc.ID,
		Score:         score,
		Document:      doc,
		Highlights:    assembleHighlights(hit.Highlights, compiled),
		MatchedFields: matchedFields(doc, compiled.PlainTerms()),
	}
}

// decodeMetadataValue reverses the FieldValue encoding per field. Only the
// tags field is list-valued; everything else stays scalar text.
func decodeMetadataValue(name, value string) domain.FieldValue {
	if name == query.NormalizeField(domain.MetaTags) {
		return domain.Tags(domain.DecodeTags(value))
	}
	return domain.Text(value)
}

// assembleHighlights keeps only fragments that actually carry a match
// marker and keys them by the original field name.
func assembleHighlights(raw map[string][]string, compiled query.Compiled) map[string][]string {
	if len(raw) == 0 || compiled.Highlight == nil {
		return nil
	}
	out := make(map[string][]string)
	for col, fragments := range raw {
		kept := make([]string, 0, len(fragments))
		for _, f := range fragments {
			if strings.Contains(f, compiled.Highlight.PreTag) {
				kept = append(kept, f)
			}
		}
		if len(kept) == 0 {
			continue
		}
		if name, ok := query.IsMetadataColumn(col); ok {
			out[name] = kept
		} else {
			out[col] = kept
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// matchedFields re-scans the assembled document for case-insensitive
// containment of each query term. A best-effort UI hint: prefix and boolean
// modes may match documents this scan misses.
func matchedFields(doc domain.IndexableDocument, terms []string) []string {
	if len(terms) == 0 {
		return nil
	}

	fields := map[string]string{
		driver.ColTitle:   doc.Title,
		driver.ColContent: doc.Content,
	}
	for name, value := range doc.Metadata {
		if value.Kind() == domain.FieldValueText {
			fields[name] = value.TextValue()
		}
	}

	matched := make([]string, 0, len(fields))
	for name, text := range fields {
		lower := strings.ToLower(text)
		for _, term := range terms {
			if term == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(term)) {
				matched = append(matched, name)
				break
			}
		}
	}
	sort.Strings(matched)
	if len(matched) == 0 {
		return nil
	}
	return matched
}
