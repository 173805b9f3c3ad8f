package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"contact-indexer/domain"
	"contact-indexer/monitor"
	"contact-indexer/port"
	"contact-indexer/usecase"
)

// mockSearchBackend implements port.SearchBackend for handler tests.
type mockSearchBackend struct {
	searchResp *domain.SearchResponse
	searchErr  error
	lastQuery  *domain.SearchQuery
	values     map[string][]domain.ValueCount
	infos      map[domain.DocumentType]*domain.IndexInfo
	pingErr    error
	upserted   []domain.IndexableDocument
	deleted    []string
}

func (m *mockSearchBackend) EnsureIndex(ctx context.Context, cfg domain.SearchIndexConfig) error {
	return nil
}

func (m *mockSearchBackend) DropIndex(ctx context.Context, indexName string) error {
	return nil
}

func (m *mockSearchBackend) UpsertDocument(ctx context.Context, doc domain.IndexableDocument) error {
	m.upserted = append(m.upserted, doc)
	return nil
}

func (m *mockSearchBackend) DeleteDocument(ctx context.Context, docType domain.DocumentType, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockSearchBackend) Search(ctx context.Context, docType domain.DocumentType, q domain.SearchQuery) (*domain.SearchResponse, error) {
	m.lastQuery = &q
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.searchResp != nil {
		return m.searchResp, nil
	}
	return &domain.SearchResponse{Query: q.Q}, nil
}

func (m *mockSearchBackend) SuggestValues(ctx context.Context, docType domain.DocumentType, field, prefix, userID string, limit int) ([]domain.ValueCount, error) {
	return m.values[field], nil
}

func (m *mockSearchBackend) Info(ctx context.Context, docType domain.DocumentType) (*domain.IndexInfo, error) {
	if info, ok := m.infos[docType]; ok {
		return info, nil
	}
	return &domain.IndexInfo{}, nil
}

func (m *mockSearchBackend) Ping(ctx context.Context) (time.Duration, error) {
	return 3 * time.Millisecond, m.pingErr
}

// mockRecordRepository serves a fixed set of records, each page request
// after the first returning empty so reindex loops terminate.
type mockRecordRepository struct {
	cards       []*domain.Card
	companies   []*domain.Company
	cardsServed bool
	compServed  bool
}

func (m *mockRecordRepository) GetCards(ctx context.Context, lastCreatedAt *time.Time, lastID string, limit int) ([]*domain.Card, *time.Time, string, error) {
	if m.cardsServed || len(m.cards) == 0 {
		return nil, nil, "", nil
	}
	m.cardsServed = true
	last := m.cards[len(m.cards)-1]
	created := last.CreatedAt()
	return m.cards, &created, last.ID(), nil
}

func (m *mockRecordRepository) GetCompanies(ctx context.Context, lastCreatedAt *time.Time, lastID string, limit int) ([]*domain.Company, *time.Time, string, error) {
	if m.compServed || len(m.companies) == 0 {
		return nil, nil, "", nil
	}
	m.compServed = true
	last := m.companies[len(m.companies)-1]
	created := last.CreatedAt()
	return m.companies, &created, last.ID(), nil
}

func (m *mockRecordRepository) GetCardByID(ctx context.Context, id string) (*domain.Card, error) {
	for _, card := range m.cards {
		if card.ID() == id {
			return card, nil
		}
	}
	return nil, &port.RepositoryError{Op: "get card by id", Err: "card not found", NotFound: true}
}

func (m *mockRecordRepository) GetCompanyByID(ctx context.Context, id string) (*domain.Company, error) {
	for _, company := range m.companies {
		if company.ID() == id {
			return company, nil
		}
	}
	return nil, &port.RepositoryError{Op: "get company by id", Err: "company not found", NotFound: true}
}

func newTestServer(backend *mockSearchBackend, records *mockRecordRepository) *echo.Echo {
	mon := monitor.New()
	handler := NewHandler(
		usecase.NewSearchDocumentsUsecase(backend, mon),
		usecase.NewSuggestValuesUsecase(backend),
		usecase.NewIndexDocumentsUsecase(backend, records, 100),
		usecase.NewHealthUsecase(backend, mon),
		nil,
	)
	e := echo.New()
	handler.RegisterRoutes(e)
	return e
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
}

func testCard(t *testing.T, id, name string) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(id, name, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewCard() error = %v", err)
	}
	return card
}

func TestSearch_OK(t *testing.T) {
	backend := &mockSearchBackend{
		searchResp: &domain.SearchResponse{
			Query: "alice",
			Total: 12,
			Took:  8 * time.Millisecond,
			Results: []domain.SearchResult{{
				ID:    "card-1",
				Score: 0.9,
				Document: domain.IndexableDocument{
					ID:    "card-1",
					Type:  domain.DocumentTypeCard,
					Title: "Alice Smith",
					Metadata: map[string]domain.FieldValue{
						domain.MetaCompanyName: domain.Text("Acme"),
						domain.MetaTags:        domain.Tags([]string{"vip"}),
					},
				},
			}},
		},
	}
	e := newTestServer(backend, &mockRecordRepository{})

	rec := doRequest(e, http.MethodGet, "/v1/search?q=alice&type=card&page=2&limit=5", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp SearchResponseJSON
	decodeJSON(t, rec, &resp)
	if !resp.Success || resp.Total != 12 || resp.Page != 2 || resp.Limit != 5 {
		t.Errorf("envelope = %+v, want success total=12 page=2 limit=5", resp)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "card-1" {
		t.Fatalf("results = %+v, want card-1", resp.Results)
	}
	if got := resp.Results[0].Metadata["companyName"]; got != "Acme" {
		t.Errorf("metadata companyName = %v, want Acme", got)
	}
	if backend.lastQuery == nil || backend.lastQuery.Offset != 5 || backend.lastQuery.Limit != 5 {
		t.Errorf("backend query = %+v, want offset 5 limit 5", backend.lastQuery)
	}
}

func TestSearch_FilterParams(t *testing.T) {
	backend := &mockSearchBackend{}
	e := newTestServer(backend, &mockRecordRepository{})

	rec := doRequest(e, http.MethodGet, "/v1/search?q=alice&tags=vip,lead&userId=user-1&dateFrom=2025-01-01", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if backend.lastQuery == nil {
		t.Fatal("backend was not called")
	}
	if len(backend.lastQuery.Filters) != 4 {
		t.Errorf("filters = %+v, want tag x2, userId, dateFrom", backend.lastQuery.Filters)
	}
}

func TestSearch_InvalidPage(t *testing.T) {
	e := newTestServer(&mockSearchBackend{}, &mockRecordRepository{})

	rec := doRequest(e, http.MethodGet, "/v1/search?q=alice&page=0", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	if resp.Success || resp.Error.Code != domain.CodeInvalidPagination {
		t.Errorf("error = %+v, want %s", resp.Error, domain.CodeInvalidPagination)
	}
}

func TestSearch_UnknownType(t *testing.T) {
	e := newTestServer(&mockSearchBackend{}, &mockRecordRepository{})

	rec := doRequest(e, http.MethodGet, "/v1/search?q=alice&type=widgets", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	if resp.Error.Code != domain.CodeInvalidType {
		t.Errorf("code = %v, want %s", resp.Error.Code, domain.CodeInvalidType)
	}
}

func TestSearch_BadDateBound(t *testing.T) {
	e := newTestServer(&mockSearchBackend{}, &mockRecordRepository{})

	rec := doRequest(e, http.MethodGet, "/v1/search?q=alice&dateTo=whenever", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	if resp.Error.Code != domain.CodeInvalidFilter {
		t.Errorf("code = %v, want %s", resp.Error.Code, domain.CodeInvalidFilter)
	}
}

func TestSearch_BackendUnavailable(t *testing.T) {
	backend := &mockSearchBackend{searchErr: &domain.SearchEngineError{Op: "Search", Err: "connection refused"}}
	e := newTestServer(backend, &mockRecordRepository{})

	rec := doRequest(e, http.MethodGet, "/v1/search?q=alice", "")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	if strings.Contains(resp.Error.Message, "connection refused") {
		t.Error("backend error details must not leak to clients")
	}
}

func TestSuggestions_OK(t *testing.T) {
	backend := &mockSearchBackend{values: map[string][]domain.ValueCount{
		"name":    {{Value: "Alice Smith", Count: 2}},
		"company": {{Value: "Acme", Count: 4}},
	}}
	e := newTestServer(backend, &mockRecordRepository{})

	rec := doRequest(e, http.MethodGet, "/v1/search/suggestions?prefix=al", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp SuggestionsResponseJSON
	decodeJSON(t, rec, &resp)
	if !resp.Success || resp.Prefix != "al" {
		t.Errorf("envelope = %+v", resp)
	}
	if len(resp.Suggestions) != 2 {
		t.Fatalf("suggestions = %+v, want 2", resp.Suggestions)
	}
	// company 2.0*4=8 outranks name 3.0*2=6
	if resp.Suggestions[0].Value != "Acme" || resp.Suggestions[0].Score != 8 {
		t.Errorf("top suggestion = %+v, want Acme score 8", resp.Suggestions[0])
	}
}

func TestSuggestions_ShortPrefix(t *testing.T) {
	e := newTestServer(&mockSearchBackend{}, &mockRecordRepository{})

	rec := doRequest(e, http.MethodGet, "/v1/search/suggestions?prefix=a", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	if resp.Error.Code != domain.CodeInvalidPrefix {
		t.Errorf("code = %v, want %s", resp.Error.Code, domain.CodeInvalidPrefix)
	}
}

func TestSuggestions_UnknownCategory(t *testing.T) {
	e := newTestServer(&mockSearchBackend{}, &mockRecordRepository{})

	rec := doRequest(e, http.MethodGet, "/v1/search/suggestions?prefix=al&type=email", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	if resp.Error.Code != domain.CodeInvalidType {
		t.Errorf("code = %v, want %s", resp.Error.Code, domain.CodeInvalidType)
	}
}

func TestHealth_Healthy(t *testing.T) {
	backend := &mockSearchBackend{infos: map[domain.DocumentType]*domain.IndexInfo{
		domain.DocumentTypeCard:    {IndexName: "contact_cards", DocumentCount: 10},
		domain.DocumentTypeCompany: {IndexName: "companies", DocumentCount: 3},
	}}
	e := newTestServer(backend, &mockRecordRepository{})

	rec := doRequest(e, http.MethodGet, "/v1/search/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp HealthResponseJSON
	decodeJSON(t, rec, &resp)
	if resp.Status != string(usecase.StatusHealthy) || !resp.Database.Connected {
		t.Errorf("health = %+v, want healthy and connected", resp)
	}
	if resp.Indexes["card"].DocumentCount != 10 {
		t.Errorf("card index = %+v, want 10 documents", resp.Indexes["card"])
	}
}

func TestHealth_Unhealthy(t *testing.T) {
	backend := &mockSearchBackend{pingErr: &domain.SearchEngineError{Op: "Ping", Err: "down"}}
	e := newTestServer(backend, &mockRecordRepository{})

	rec := doRequest(e, http.MethodGet, "/v1/search/health", "")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var resp HealthResponseJSON
	decodeJSON(t, rec, &resp)
	if resp.Status != string(usecase.StatusUnhealthy) || resp.Database.Connected {
		t.Errorf("health = %+v, want unhealthy", resp)
	}
}

func TestReindex_Cards(t *testing.T) {
	backend := &mockSearchBackend{}
	records := &mockRecordRepository{cards: []*domain.Card{
		testCard(t, "card-1", "Alice"),
		testCard(t, "card-2", "Bob"),
	}}
	e := newTestServer(backend, records)

	rec := doRequest(e, http.MethodPost, "/v1/search/reindex", `{"table":"cards"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp ReindexResponseJSON
	decodeJSON(t, rec, &resp)
	if !resp.Success || resp.Cards != 2 || resp.Failed != 0 {
		t.Errorf("reindex = %+v, want 2 cards", resp)
	}
	if resp.JobID == "" {
		t.Error("JobID should be set")
	}
	if len(backend.upserted) != 2 {
		t.Errorf("upserted %d documents, want 2", len(backend.upserted))
	}
}

func TestReindex_UnknownTable(t *testing.T) {
	e := newTestServer(&mockSearchBackend{}, &mockRecordRepository{})

	rec := doRequest(e, http.MethodPost, "/v1/search/reindex", `{"table":"users"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	if resp.Error.Code != domain.CodeInvalidTable {
		t.Errorf("code = %v, want %s", resp.Error.Code, domain.CodeInvalidTable)
	}
}

func TestStats_OK(t *testing.T) {
	backend := &mockSearchBackend{infos: map[domain.DocumentType]*domain.IndexInfo{
		domain.DocumentTypeCard:    {IndexName: "contact_cards", DocumentCount: 42},
		domain.DocumentTypeCompany: {IndexName: "companies", DocumentCount: 7},
	}}
	e := newTestServer(backend, &mockRecordRepository{})

	rec := doRequest(e, http.MethodGet, "/v1/search/stats", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp StatsResponseJSON
	decodeJSON(t, rec, &resp)
	if resp.Indexes["card"].DocumentCount != 42 || resp.Indexes["company"].DocumentCount != 7 {
		t.Errorf("stats = %+v, want 42 cards and 7 companies", resp.Indexes)
	}
}

func TestIndexDocument_OK(t *testing.T) {
	backend := &mockSearchBackend{}
	records := &mockRecordRepository{cards: []*domain.Card{testCard(t, "card-1", "Alice")}}
	e := newTestServer(backend, records)

	rec := doRequest(e, http.MethodPost, "/v1/search/index/card/card-1", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(backend.upserted) != 1 || backend.upserted[0].ID != "card-1" {
		t.Errorf("upserted = %v, want card-1", backend.upserted)
	}
}

func TestIndexDocument_NotFound(t *testing.T) {
	e := newTestServer(&mockSearchBackend{}, &mockRecordRepository{})

	rec := doRequest(e, http.MethodPost, "/v1/search/index/card/missing", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body.String())
	}
	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	if resp.Error.Code != "NOT_FOUND" {
		t.Errorf("code = %v, want NOT_FOUND", resp.Error.Code)
	}
}

func TestRemoveDocument_OK(t *testing.T) {
	backend := &mockSearchBackend{}
	e := newTestServer(backend, &mockRecordRepository{})

	rec := doRequest(e, http.MethodDelete, "/v1/search/index/card/card-1", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(backend.deleted) != 1 || backend.deleted[0] != "card-1" {
		t.Errorf("deleted = %v, want [card-1]", backend.deleted)
	}
}
