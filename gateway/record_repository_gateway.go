package gateway

import (
	"context"
	"errors"
	"time"

	"contact-indexer/domain"
	"contact-indexer/driver"
	"contact-indexer/port"
)

// RecordDriver is the primary-store contract the repository gateway needs.
type RecordDriver interface {
	GetCards(ctx context.Context, lastCreatedAt *time.Time, lastID string, limit int) ([]*driver.CardRow, *time.Time, string, error)
	GetCompanies(ctx context.Context, lastCreatedAt *time.Time, lastID string, limit int) ([]*driver.CompanyRow, *time.Time, string, error)
	GetCardByID(ctx context.Context, id string) (*driver.CardRow, error)
	GetCompanyByID(ctx context.Context, id string) (*driver.CompanyRow, error)
}

// RecordRepositoryGateway adapts the primary-store driver to the repository
// port, converting driver rows into domain records.
type RecordRepositoryGateway struct {
	driver RecordDriver
}

func NewRecordRepositoryGateway(d RecordDriver) *RecordRepositoryGateway {
	return &RecordRepositoryGateway{driver: d}
}

func (g *RecordRepositoryGateway) GetCards(ctx context.Context, lastCreatedAt *time.Time, lastID string, limit int) ([]*domain.Card, *time.Time, string, error) {
	rows, nextCreatedAt, nextID, err := g.driver.GetCards(ctx, lastCreatedAt, lastID, limit)
	if err != nil {
		return nil, nil, "", &port.RepositoryError{Op: "get cards", Err: err.Error()}
	}
	cards := make([]*domain.Card, 0, len(rows))
	for _, row := range rows {
		card, err := cardFromRow(row)
		if err != nil {
			return nil, nil, "", &port.RepositoryError{Op: "convert card " + row.ID, Err: err.Error()}
		}
		cards = append(cards, card)
	}
	return cards, nextCreatedAt, nextID, nil
}

func (g *RecordRepositoryGateway) GetCompanies(ctx context.Context, lastCreatedAt *time.Time, lastID string, limit int) ([]*domain.Company, *time.Time, string, error) {
	rows, nextCreatedAt, nextID, err := g.driver.GetCompanies(ctx, lastCreatedAt, lastID, limit)
	if err != nil {
		return nil, nil, "", &port.RepositoryError{Op: "get companies", Err: err.Error()}
	}
	companies := make([]*domain.Company, 0, len(rows))
	for _, row := range rows {
		company, err := companyFromRow(row)
		if err != nil {
			return nil, nil, "", &port.RepositoryError{Op: "convert company " + row.ID, Err: err.Error()}
		}
		companies = append(companies, company)
	}
	return companies, nextCreatedAt, nextID, nil
}

func (g *RecordRepositoryGateway) GetCardByID(ctx context.Context, id string) (*domain.Card, error) {
	row, err := g.driver.GetCardByID(ctx, id)
	if err != nil {
		return nil, &port.RepositoryError{Op: "get card by id", Err: err.Error(), NotFound: isNotFound(err)}
	}
	card, err := cardFromRow(row)
	if err != nil {
		return nil, &port.RepositoryError{Op: "convert card " + id, Err: err.Error()}
	}
	return card, nil
}

func (g *RecordRepositoryGateway) GetCompanyByID(ctx context.Context, id string) (*domain.Company, error) {
	row, err := g.driver.GetCompanyByID(ctx, id)
	if err != nil {
		return nil, &port.RepositoryError{Op: "get company by id", Err: err.Error(), NotFound: isNotFound(err)}
	}
	company, err := companyFromRow(row)
	if err != nil {
		return nil, &port.RepositoryError{Op: "convert company " + id, Err: err.Error()}
	}
	return company, nil
}

func isNotFound(err error) bool {
	var de *driver.DriverError
	return errors.As(err, &de) && de.NotFound
}

func cardFromRow(row *driver.CardRow) (*domain.Card, error) {
	card, err := domain.NewCard(row.ID, row.Name, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return nil, err
	}
	card.SetContact(row.Email, row.Phone)
	card.SetCompany(row.CompanyName, row.JobTitle)
	card.SetAddress(row.Address)
	card.SetNotes(row.Notes)
	card.SetOCRText(row.OCRText)
	card.SetTags(row.Tags)
	card.SetUserID(row.UserID)
	card.SetEnrichmentCount(row.EnrichmentCount)
	return card, nil
}

func companyFromRow(row *driver.CompanyRow) (*domain.Company, error) {
	company, err := domain.NewCompany(row.ID, row.Name, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return nil, err
	}
	company.SetProfile(row.Domain, row.Description, row.Industry)
	company.SetAddress(row.Address)
	company.SetTags(row.Tags)
	company.SetUserID(row.UserID)
	company.SetEnrichmentCount(row.EnrichmentCount)
	return company, nil
}
