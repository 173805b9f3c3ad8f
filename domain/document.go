package domain

import (
	"strings"
	"time"
)

// Metadata field names shared between the transformer, the schemas, and the
// query layer. Dots never appear here; nested source fields are flattened by
// the transformer before they reach a backend.
const (
	MetaCompanyName = "companyName"
	MetaJobTitle    = "jobTitle"
	MetaEmail       = "email"
	MetaDomain      = "domain"
	MetaIndustry    = "industry"
	MetaTags        = "tags"
	MetaUserID      = "userId"
	MetaEnriched    = "enriched"
)

// IndexableDocument is the unit of indexing. ID plus Type uniquely identify
// a document; re-indexing the same ID overwrites, never duplicates.
type IndexableDocument struct {
	ID        string
	Type      DocumentType
	Title     string
	Content   string
	Metadata  map[string]FieldValue
	CreatedAt time.Time
	UpdatedAt time.Time
}

// joinContent concatenates free-text parts in their given order with single
// spaces, skipping blanks. The order is fixed so transformation stays
// deterministic across runs.
func joinContent(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// NewCardDocument transforms a card record into its indexable form. Pure and
// total: missing optional fields produce an empty slot, never an error.
func NewCardDocument(card *Card) IndexableDocument {
	return IndexableDocument{
		ID:    card.ID(),
		Type:  DocumentTypeCard,
		Title: card.Name(),
		Content: joinContent(
			card.JobTitle(),
			card.Email(),
			card.Phone(),
			card.Address(),
			card.Notes(),
			card.OCRText(),
		),
		Metadata: map[string]FieldValue{
			MetaCompanyName: Text(card.CompanyName()),
			MetaJobTitle:    Text(card.JobTitle()),
			MetaEmail:       Text(card.Email()),
			MetaTags:        Tags(card.Tags()),
			MetaUserID:      Text(card.UserID()),
			MetaEnriched:    Bool(card.Enriched()),
		},
		CreatedAt: card.CreatedAt(),
		UpdatedAt: card.UpdatedAt(),
	}
}

// NewCompanyDocument transforms a company record into its indexable form.
func NewCompanyDocument(company *Company) IndexableDocument {
	return IndexableDocument{
		ID:    company.ID(),
		Type:  DocumentTypeCompany,
		Title: company.Name(),
		Content: joinContent(
			company.Description(),
			company.Industry(),
			company.DomainName(),
			company.Address(),
		),
		Metadata: map[string]FieldValue{
			MetaDomain:   Text(company.DomainName()),
			MetaIndustry: Text(company.Industry()),
			MetaTags:     Tags(company.Tags()),
			MetaUserID:   Text(company.UserID()),
			MetaEnriched: Bool(company.Enriched()),
		},
		CreatedAt: company.CreatedAt(),
		UpdatedAt: company.UpdatedAt(),
	}
}
