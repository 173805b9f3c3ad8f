package port

import (
	"context"
	"time"

	"contact-indexer/domain"
)

// RecordRepository reads records from the primary store. The search
// subsystem only touches it during full reindex and for the administrative
// single-document endpoints; live writes arrive as events.
type RecordRepository interface {
	// GetCards pages through cards with keyset pagination on
	// (created_at, id). Returns the batch plus the advanced cursor.
	GetCards(ctx context.Context, lastCreatedAt *time.Time, lastID string, limit int) ([]*domain.Card, *time.Time, string, error)
	// GetCompanies pages through companies the same way.
	GetCompanies(ctx context.Context, lastCreatedAt *time.Time, lastID string, limit int) ([]*domain.Company, *time.Time, string, error)
	GetCardByID(ctx context.Context, id string) (*domain.Card, error)
	GetCompanyByID(ctx context.Context, id string) (*domain.Company, error)
}

type RepositoryError struct {
	Op  string
	Err string
	// NotFound marks a lookup that matched no record.
	NotFound bool
}

func (e *RepositoryError) Error() string {
	return e.Op + ": " + e.Err
}
