package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"contact-indexer/domain"
	"contact-indexer/port"
	"contact-indexer/usecase"
)

// mockSearchBackend implements port.SearchBackend for testing.
type mockSearchBackend struct {
	upserted []domain.IndexableDocument
	deleted  []string
	err      error
}

func (m *mockSearchBackend) EnsureIndex(ctx context.Context, cfg domain.SearchIndexConfig) error {
	return m.err
}

func (m *mockSearchBackend) DropIndex(ctx context.Context, indexName string) error {
	return m.err
}

func (m *mockSearchBackend) UpsertDocument(ctx context.Context, doc domain.IndexableDocument) error {
	if m.err != nil {
		return m.err
	}
	m.upserted = append(m.upserted, doc)
	return nil
}

func (m *mockSearchBackend) DeleteDocument(ctx context.Context, docType domain.DocumentType, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockSearchBackend) Search(ctx context.Context, docType domain.DocumentType, q domain.SearchQuery) (*domain.SearchResponse, error) {
	return &domain.SearchResponse{}, m.err
}

func (m *mockSearchBackend) SuggestValues(ctx context.Context, docType domain.DocumentType, field, prefix, userID string, limit int) ([]domain.ValueCount, error) {
	return nil, m.err
}

func (m *mockSearchBackend) Info(ctx context.Context, docType domain.DocumentType) (*domain.IndexInfo, error) {
	return &domain.IndexInfo{}, m.err
}

func (m *mockSearchBackend) Ping(ctx context.Context) (time.Duration, error) {
	return 0, m.err
}

// stubRecordRepository satisfies port.RecordRepository; event handling never
// touches the primary store.
type stubRecordRepository struct{}

func (stubRecordRepository) GetCards(ctx context.Context, lastCreatedAt *time.Time, lastID string, limit int) ([]*domain.Card, *time.Time, string, error) {
	return nil, nil, "", nil
}

func (stubRecordRepository) GetCompanies(ctx context.Context, lastCreatedAt *time.Time, lastID string, limit int) ([]*domain.Company, *time.Time, string, error) {
	return nil, nil, "", nil
}

func (stubRecordRepository) GetCardByID(ctx context.Context, id string) (*domain.Card, error) {
	return nil, &port.RepositoryError{Op: "get card by id", Err: "no rows", NotFound: true}
}

func (stubRecordRepository) GetCompanyByID(ctx context.Context, id string) (*domain.Company, error) {
	return nil, &port.RepositoryError{Op: "get company by id", Err: "no rows", NotFound: true}
}

func newTestHandler(backend *mockSearchBackend) *ContactEventHandler {
	indexer := usecase.NewIndexDocumentsUsecase(backend, stubRecordRepository{}, 0)
	return NewContactEventHandler(indexer, slog.Default())
}

func cardEvent(t *testing.T, eventType string, payload CardEventPayload) Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return Event{
		MessageID: "1-0",
		EventID:   "evt-1",
		EventType: eventType,
		Payload:   raw,
	}
}

func TestHandleEvent_CardCreated(t *testing.T) {
	backend := &mockSearchBackend{}
	handler := newTestHandler(backend)

	event := cardEvent(t, "CardCreated", CardEventPayload{
		ID:          "card-1",
		Name:        "Alice Smith",
		Email:       "alice@example.com",
		CompanyName: "Acme",
		Tags:        []string{"vip"},
		UserID:      "user-1",
		CreatedAt:   "2025-03-01T10:00:00Z",
		UpdatedAt:   "2025-03-01T10:00:00Z",
	})

	if err := handler.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	if len(backend.upserted) != 1 {
		t.Fatalf("upserted = %v, want 1 document", backend.upserted)
	}
	doc := backend.upserted[0]
	if doc.ID != "card-1" || doc.Type != domain.DocumentTypeCard {
		t.Errorf("document = %+v, want card card-1", doc)
	}
	if doc.Title != "Alice Smith" {
		t.Errorf("Title = %v, want Alice Smith", doc.Title)
	}
	want := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if !doc.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", doc.CreatedAt, want)
	}
}

func TestHandleEvent_CardUpdated_Overwrites(t *testing.T) {
	backend := &mockSearchBackend{}
	handler := newTestHandler(backend)

	event := cardEvent(t, "CardUpdated", CardEventPayload{ID: "card-1", Name: "Alice Renamed"})
	if err := handler.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if len(backend.upserted) != 1 || backend.upserted[0].Title != "Alice Renamed" {
		t.Errorf("upserted = %v, want updated title", backend.upserted)
	}
}

func TestHandleEvent_CardDeleted(t *testing.T) {
	backend := &mockSearchBackend{}
	handler := newTestHandler(backend)

	raw, _ := json.Marshal(DeleteEventPayload{ID: "card-1", UserID: "user-1"})
	event := Event{EventID: "evt-2", EventType: "CardDeleted", Payload: raw}

	if err := handler.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if len(backend.deleted) != 1 || backend.deleted[0] != "card-1" {
		t.Errorf("deleted = %v, want [card-1]", backend.deleted)
	}
}

func TestHandleEvent_CompanyCreated(t *testing.T) {
	backend := &mockSearchBackend{}
	handler := newTestHandler(backend)

	raw, _ := json.Marshal(CompanyEventPayload{
		ID:       "co-1",
		Name:     "Acme",
		Domain:   "acme.com",
		Industry: "Manufacturing",
	})
	event := Event{EventID: "evt-3", EventType: "CompanyCreated", Payload: raw}

	if err := handler.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if len(backend.upserted) != 1 || backend.upserted[0].Type != domain.DocumentTypeCompany {
		t.Fatalf("upserted = %v, want one company document", backend.upserted)
	}
	if got := backend.upserted[0].Metadata[domain.MetaDomain].TextValue(); got != "acme.com" {
		t.Errorf("metadata domain = %v, want acme.com", got)
	}
}

func TestHandleEvent_UnknownTypeIsAcknowledged(t *testing.T) {
	backend := &mockSearchBackend{}
	handler := newTestHandler(backend)

	event := Event{EventID: "evt-4", EventType: "CardMerged", Payload: json.RawMessage(`{}`)}

	if err := handler.HandleEvent(context.Background(), event); err != nil {
		t.Errorf("HandleEvent() error = %v, unknown types must not force redelivery", err)
	}
	if len(backend.upserted) != 0 && len(backend.deleted) != 0 {
		t.Error("unknown event type should not touch the index")
	}
}

func TestHandleEvent_InvalidRecordIsSkipped(t *testing.T) {
	backend := &mockSearchBackend{}
	handler := newTestHandler(backend)

	// Missing name: structurally invalid, redelivery cannot fix it.
	event := cardEvent(t, "CardCreated", CardEventPayload{ID: "card-1"})

	if err := handler.HandleEvent(context.Background(), event); err != nil {
		t.Errorf("HandleEvent() error = %v, poison records must be acknowledged", err)
	}
	if len(backend.upserted) != 0 {
		t.Error("invalid record should not be indexed")
	}
}

func TestHandleEvent_MalformedPayloadFails(t *testing.T) {
	backend := &mockSearchBackend{}
	handler := newTestHandler(backend)

	event := Event{EventID: "evt-5", EventType: "CardCreated", Payload: json.RawMessage(`{not json`)}

	if err := handler.HandleEvent(context.Background(), event); err == nil {
		t.Error("HandleEvent() should fail on malformed JSON")
	}
}

func TestHandleEvent_BackendErrorPropagates(t *testing.T) {
	backend := &mockSearchBackend{err: &domain.SearchEngineError{Op: "UpsertDocument", Err: "down"}}
	handler := newTestHandler(backend)

	event := cardEvent(t, "CardCreated", CardEventPayload{ID: "card-1", Name: "Alice"})

	if err := handler.HandleEvent(context.Background(), event); err == nil {
		t.Error("HandleEvent() should propagate backend errors for redelivery")
	}
}

func TestParseEventTime(t *testing.T) {
	got := parseEventTime("2025-03-01T10:00:00Z")
	if got.IsZero() {
		t.Error("valid RFC3339 timestamp should parse")
	}
	if !parseEventTime("not a time").IsZero() {
		t.Error("malformed timestamp should fall back to zero time")
	}
}
