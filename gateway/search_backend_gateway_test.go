package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"contact-indexer/domain"
	"contact-indexer/driver"
	"contact-indexer/query"
)

// mockSearchDriver implements SearchDriver for testing.
type mockSearchDriver struct {
	hits         *driver.RawHits
	values       []domain.ValueCount
	info         *domain.IndexInfo
	err          error
	upserted     []domain.IndexableDocument
	deleted      []string
	lastCompiled query.Compiled
}

func (m *mockSearchDriver) EnsureIndex(ctx context.Context, cfg domain.SearchIndexConfig) error {
	return m.err
}

func (m *mockSearchDriver) DropIndex(ctx context.Context, indexName string) error {
	return m.err
}

func (m *mockSearchDriver) Upsert(ctx context.Context, cfg domain.SearchIndexConfig, doc domain.IndexableDocument) error {
	if m.err != nil {
		return m.err
	}
	m.upserted = append(m.upserted, doc)
	return nil
}

func (m *mockSearchDriver) Delete(ctx context.Context, cfg domain.SearchIndexConfig, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockSearchDriver) Search(ctx context.Context, cfg domain.SearchIndexConfig, compiled query.Compiled) (*driver.RawHits, error) {
	m.lastCompiled = compiled
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

func (m *mockSearchDriver) SuggestValues(ctx context.Context, cfg domain.SearchIndexConfig, field, prefix, userID string, limit int) ([]domain.ValueCount, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.values, nil
}

func (m *mockSearchDriver) Info(ctx context.Context, cfg domain.SearchIndexConfig) (*domain.IndexInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.info, nil
}

func (m *mockSearchDriver) Ping(ctx context.Context) (time.Duration, error) {
	if m.err != nil {
		return 0, m.err
	}
	return time.Millisecond, nil
}

func TestSearchBackendGateway_Search(t *testing.T) {
	mock := &mockSearchDriver{
		hits: &driver.RawHits{
			Hits: []driver.SearchHit{
				{Fields: map[string]string{driver.ColID: "card-1", driver.ColTitle: "Alice"}, Score: 0.9, HasScore: true},
			},
			Total: 1,
		},
	}
	gw := NewSearchBackendGateway(mock, time.Second)

	resp, err := gw.Search(context.Background(), domain.DocumentTypeCard, domain.SearchQuery{Q: "alice"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if resp.Total != 1 || len(resp.Results) != 1 {
		t.Fatalf("Search() = %+v, want one result", resp)
	}
	if resp.Results[0].ID != "card-1" {
		t.Errorf("result ID = %v, want card-1", resp.Results[0].ID)
	}
	if resp.Query != "alice" {
		t.Errorf("Query = %v, want alice", resp.Query)
	}
	if len(mock.lastCompiled.Terms) != 1 {
		t.Errorf("driver received %v terms, want 1", mock.lastCompiled.Terms)
	}
}

func TestSearchBackendGateway_Search_InvalidQuery(t *testing.T) {
	gw := NewSearchBackendGateway(&mockSearchDriver{}, time.Second)

	_, err := gw.Search(context.Background(), domain.DocumentTypeCard, domain.SearchQuery{Q: "alice", Limit: -1})

	var qe *domain.SearchQueryError
	if !errors.As(err, &qe) {
		t.Fatalf("Search() error = %v, want *SearchQueryError", err)
	}
}

func TestSearchBackendGateway_Search_DriverError(t *testing.T) {
	mock := &mockSearchDriver{err: errors.New("connection refused")}
	gw := NewSearchBackendGateway(mock, time.Second)

	_, err := gw.Search(context.Background(), domain.DocumentTypeCard, domain.SearchQuery{Q: "alice"})

	var se *domain.SearchEngineError
	if !errors.As(err, &se) {
		t.Fatalf("Search() error = %v, want *SearchEngineError", err)
	}
	if se.Op != "Search" {
		t.Errorf("Op = %v, want Search", se.Op)
	}
}

func TestSearchBackendGateway_Search_MinRankFilter(t *testing.T) {
	mock := &mockSearchDriver{
		hits: &driver.RawHits{
			Hits: []driver.SearchHit{
				{Fields: map[string]string{driver.ColID: "high"}, Score: 0.9, HasScore: true},
				{Fields: map[string]string{driver.ColID: "low"}, Score: 0.1, HasScore: true},
			},
			Total: 2,
		},
	}
	gw := NewSearchBackendGateway(mock, time.Second)

	resp, err := gw.Search(context.Background(), domain.DocumentTypeCard, domain.SearchQuery{Q: "alice", MinRank: 0.5})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "high" {
		t.Errorf("Results = %v, want only the high-rank hit", resp.Results)
	}
}

func TestSearchBackendGateway_UpsertDocument(t *testing.T) {
	mock := &mockSearchDriver{}
	gw := NewSearchBackendGateway(mock, time.Second)

	doc := domain.IndexableDocument{ID: "card-1", Type: domain.DocumentTypeCard, Title: "Alice"}
	if err := gw.UpsertDocument(context.Background(), doc); err != nil {
		t.Fatalf("UpsertDocument() error = %v", err)
	}
	if len(mock.upserted) != 1 || mock.upserted[0].ID != "card-1" {
		t.Errorf("upserted = %v, want card-1", mock.upserted)
	}

	mock.err = errors.New("down")
	err := gw.UpsertDocument(context.Background(), doc)
	var se *domain.SearchEngineError
	if !errors.As(err, &se) {
		t.Errorf("UpsertDocument() error = %v, want *SearchEngineError", err)
	}
}

func TestSearchBackendGateway_DeleteDocument(t *testing.T) {
	mock := &mockSearchDriver{}
	gw := NewSearchBackendGateway(mock, time.Second)

	if err := gw.DeleteDocument(context.Background(), domain.DocumentTypeCard, "card-1"); err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}
	if len(mock.deleted) != 1 || mock.deleted[0] != "card-1" {
		t.Errorf("deleted = %v, want [card-1]", mock.deleted)
	}
}

func TestSearchBackendGateway_Ping(t *testing.T) {
	gw := NewSearchBackendGateway(&mockSearchDriver{}, time.Second)

	rtt, err := gw.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if rtt != time.Millisecond {
		t.Errorf("Ping() rtt = %v, want 1ms", rtt)
	}

	gw = NewSearchBackendGateway(&mockSearchDriver{err: errors.New("down")}, time.Second)
	if _, err := gw.Ping(context.Background()); err == nil {
		t.Error("Ping() should surface driver errors")
	}
}

func TestSearchBackendGateway_Info(t *testing.T) {
	mock := &mockSearchDriver{info: &domain.IndexInfo{IndexName: "cards", DocumentCount: 42}}
	gw := NewSearchBackendGateway(mock, time.Second)

	info, err := gw.Info(context.Background(), domain.DocumentTypeCard)
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if info.DocumentCount != 42 {
		t.Errorf("DocumentCount = %v, want 42", info.DocumentCount)
	}
}
