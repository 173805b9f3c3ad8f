package port

import (
	"context"
	"time"

	"contact-indexer/domain"
)

// SearchBackend is the polymorphic search store. Two implementations exist
// behind this interface, an inverted-index engine and a relational full-text
// engine, selected by configuration; callers cannot tell them apart.
type SearchBackend interface {
	// EnsureIndex is idempotent: it creates the index from its schema when
	// absent. A failure here at startup is fatal to the service.
	EnsureIndex(ctx context.Context, cfg domain.SearchIndexConfig) error
	// DropIndex irreversibly removes an index. Administrative reindex only.
	DropIndex(ctx context.Context, indexName string) error
	// UpsertDocument creates or overwrites one document; same ID never
	// duplicates.
	UpsertDocument(ctx context.Context, doc domain.IndexableDocument) error
	// DeleteDocument is delete-if-exists; removing an absent ID is not an
	// error.
	DeleteDocument(ctx context.Context, docType domain.DocumentType, id string) error
	// Search executes one query against the type's index.
	Search(ctx context.Context, docType domain.DocumentType, q domain.SearchQuery) (*domain.SearchResponse, error)
	// SuggestValues returns distinct values of a text field starting with
	// prefix, with occurrence counts, optionally scoped to one user.
	SuggestValues(ctx context.Context, docType domain.DocumentType, field, prefix, userID string, limit int) ([]domain.ValueCount, error)
	// Info reports document count and freshness for the type's index.
	Info(ctx context.Context, docType domain.DocumentType) (*domain.IndexInfo, error)
	// Ping checks backend connectivity and reports the round-trip time.
	Ping(ctx context.Context) (time.Duration, error)
}
