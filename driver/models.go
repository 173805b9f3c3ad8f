package driver

import (
	"strings"

	"contact-indexer/domain"
	"contact-indexer/query"
)

// DriverError represents an error from the driver layer. Connectivity and
// timeout failures surface through it so callers can treat them as
// retryable.
type DriverError struct {
	Op  string
	Err string
	// NotFound marks a lookup that matched no record, as opposed to a
	// transport failure.
	NotFound bool
}

func (e *DriverError) Error() string {
	return e.Op + ": " + e.Err
}

// SearchHit is one raw backend hit: flattened stored fields, an optional
// backend rank, and per-field highlight fragments. Both drivers produce this
// shape; the gateway's assembler turns it back into a domain result.
type SearchHit struct {
	// Fields maps stored column names (title, content, createdAt,
	// metadata_*) to their flat string encoding.
	Fields map[string]string
	Score  float64
	// HasScore is false when the backend exposed no numeric rank; the
	// assembler substitutes a constant instead of failing.
	HasScore bool
	// Highlights maps stored column names to wrapped fragments.
	Highlights map[string][]string
}

// RawHits is one page of hits plus the full match count.
type RawHits struct {
	Hits  []SearchHit
	Total int64
}

// Stored column names shared by both drivers and the assembler.
const (
	ColID        = "id"
	ColDocType   = "docType"
	ColTitle     = "title"
	ColContent   = "content"
	ColCreatedAt = "createdAt"
	ColUpdatedAt = "updatedAt"
)

// FlattenDocument renders a document into the flat column form both
// backends store: metadata moves under metadata_* names via the shared
// field normalization, and every value is encoded with the one
// FieldValue encoder so the assembler's decode mirrors it exactly.
func FlattenDocument(doc domain.IndexableDocument) map[string]string {
	flat := map[string]string{
		ColID:        doc.ID,
		ColDocType:   string(doc.Type),
		ColTitle:     doc.Title,
		ColContent:   doc.Content,
		ColCreatedAt: domain.Number(float64(doc.CreatedAt.Unix())).Encode(),
		ColUpdatedAt: domain.Number(float64(doc.UpdatedAt.Unix())).Encode(),
	}
	for name, value := range doc.Metadata {
		flat[query.MetadataColumn(name)] = value.Encode()
	}
	return flat
}

// StorageKey builds the type-prefixed key a document is stored under,
// restricted to the identifier charset every backend accepts.
func StorageKey(cfg domain.SearchIndexConfig, id string) string {
	prefix := strings.NewReplacer(":", "_", ".", "_").Replace(cfg.KeyPrefix)
	return prefix + id
}

// suggestSource maps a suggestion field to the stored column it reads.
// The three categories are the only grouped-value queries the backends run.
func suggestSource(field string) string {
	switch field {
	case "name":
		return ColTitle
	case "company":
		return query.MetadataColumn(domain.MetaCompanyName)
	case "title":
		return query.MetadataColumn(domain.MetaJobTitle)
	default:
		return query.MetadataColumn(field)
	}
}
