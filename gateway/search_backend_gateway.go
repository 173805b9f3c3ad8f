package gateway

import (
	"context"
	"time"

	"contact-indexer/domain"
	"contact-indexer/driver"
	"contact-indexer/query"
)

// SearchDriver is the driver-level contract both backend drivers satisfy.
// Drivers receive compiled queries, never raw SearchQuery values, so the
// mode and filter semantics are fixed before backend-specific code runs.
type SearchDriver interface {
	EnsureIndex(ctx context.Context, cfg domain.SearchIndexConfig) error
	DropIndex(ctx context.Context, indexName string) error
	Upsert(ctx context.Context, cfg domain.SearchIndexConfig, doc domain.IndexableDocument) error
	Delete(ctx context.Context, cfg domain.SearchIndexConfig, id string) error
	Search(ctx context.Context, cfg domain.SearchIndexConfig, compiled query.Compiled) (*driver.RawHits, error)
	SuggestValues(ctx context.Context, cfg domain.SearchIndexConfig, field, prefix, userID string, limit int) ([]domain.ValueCount, error)
	Info(ctx context.Context, cfg domain.SearchIndexConfig) (*domain.IndexInfo, error)
	Ping(ctx context.Context) (time.Duration, error)
}

// SearchBackendGateway implements port.SearchBackend over a SearchDriver.
// It owns the two shared stages both backends must agree on: query
// compilation on the way in and result assembly on the way out.
type SearchBackendGateway struct {
	driver  SearchDriver
	timeout time.Duration
}

func NewSearchBackendGateway(d SearchDriver, timeout time.Duration) *SearchBackendGateway {
	return &SearchBackendGateway{driver: d, timeout: timeout}
}

func (g *SearchBackendGateway) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *SearchBackendGateway) EnsureIndex(ctx context.Context, cfg domain.SearchIndexConfig) error {
	callCtx, cancel := g.callCtx(ctx)
	defer cancel()
	if err := g.driver.EnsureIndex(callCtx, cfg); err != nil {
		return &domain.SearchEngineError{Op: "EnsureIndex", Err: err.Error()}
	}
	return nil
}

func (g *SearchBackendGateway) DropIndex(ctx context.Context, indexName string) error {
	callCtx, cancel := g.callCtx(ctx)
	defer cancel()
	if err := g.driver.DropIndex(callCtx, indexName); err != nil {
		return &domain.SearchEngineError{Op: "DropIndex", Err: err.Error()}
	}
	return nil
}

func (g *SearchBackendGateway) UpsertDocument(ctx context.Context, doc domain.IndexableDocument) error {
	callCtx, cancel := g.callCtx(ctx)
	defer cancel()
	if err := g.driver.Upsert(callCtx, domain.IndexConfigFor(doc.Type), doc); err != nil {
		return &domain.SearchEngineError{Op: "UpsertDocument", Err: err.Error()}
	}
	return nil
}

func (g *SearchBackendGateway) DeleteDocument(ctx context.Context, docType domain.DocumentType, id string) error {
	callCtx, cancel := g.callCtx(ctx)
	defer cancel()
	if err := g.driver.Delete(callCtx, domain.IndexConfigFor(docType), id); err != nil {
		return &domain.SearchEngineError{Op: "DeleteDocument", Err: err.Error()}
	}
	return nil
}

// Search compiles, executes, and assembles one query. Compilation errors
// come back as SearchQueryError (caller fault); driver errors are wrapped as
// retryable SearchEngineError, never as an empty result set.
func (g *SearchBackendGateway) Search(ctx context.Context, docType domain.DocumentType, q domain.SearchQuery) (*domain.SearchResponse, error) {
	cfg := domain.IndexConfigFor(docType)

	compiled, err := query.Compile(q, cfg)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := g.callCtx(ctx)
	defer cancel()

	start := time.Now()
	raw, err := g.driver.Search(callCtx, cfg, compiled)
	if err != nil {
		return nil, &domain.SearchEngineError{Op: "Search", Err: err.Error()}
	}
	took := time.Since(start)

	results := make([]domain.SearchResult, 0, len(raw.Hits))
	for _, hit := range raw.Hits {
		result := assembleResult(hit, compiled)
		if compiled.MinRank > 0 && result.Score < compiled.MinRank {
			continue
		}
		results = append(results, result)
	}

	return &domain.SearchResponse{
		Results: results,
		Total:   raw.Total,
		Query:   q.Q,
		Took:    took,
	}, nil
}

func (g *SearchBackendGateway) SuggestValues(ctx context.Context, docType domain.DocumentType, field, prefix, userID string, limit int) ([]domain.ValueCount, error) {
	callCtx, cancel := g.callCtx(ctx)
	defer cancel()
	values, err := g.driver.SuggestValues(callCtx, domain.IndexConfigFor(docType), field, prefix, userID, limit)
	if err != nil {
		return nil, &domain.SearchEngineError{Op: "SuggestValues", Err: err.Error()}
	}
	return values, nil
}

func (g *SearchBackendGateway) Info(ctx context.Context, docType domain.DocumentType) (*domain.IndexInfo, error) {
	callCtx, cancel := g.callCtx(ctx)
	defer cancel()
	info, err := g.driver.Info(callCtx, domain.IndexConfigFor(docType))
	if err != nil {
		return nil, &domain.SearchEngineError{Op: "Info", Err: err.Error()}
	}
	return info, nil
}

func (g *SearchBackendGateway) Ping(ctx context.Context) (time.Duration, error) {
	callCtx, cancel := g.callCtx(ctx)
	defer cancel()
	rtt, err := g.driver.Ping(callCtx)
	if err != nil {
		return 0, &domain.SearchEngineError{Op: "Ping", Err: err.Error()}
	}
	return rtt, nil
}
