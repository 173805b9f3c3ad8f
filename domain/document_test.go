package domain

import (
	"testing"
	"time"
)

func TestNewCardDocument(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	updated := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	card, err := NewCard("card-1", "Alice Smith", created, updated)
	if err != nil {
		t.Fatalf("NewCard() error = %v", err)
	}
	card.SetContact("alice@example.com", "555-0100")
	card.SetCompany("Acme Corp", "Engineer")
	card.SetAddress("1 Main St")
	card.SetNotes("met at conference")
	card.SetOCRText("raw scan text")
	card.SetTags([]string{"vip", "engineering"})
	card.SetUserID("user-1")
	card.SetEnrichmentCount(1)

	doc := NewCardDocument(card)

	if doc.ID != "card-1" {
		t.Errorf("ID = %v, want card-1", doc.ID)
	}
	if doc.Type != DocumentTypeCard {
		t.Errorf("Type = %v, want %v", doc.Type, DocumentTypeCard)
	}
	if doc.Title != "Alice Smith" {
		t.Errorf("Title = %v, want Alice Smith", doc.Title)
	}

	wantContent := "Engineer alice@example.com 555-0100 1 Main St met at conference raw scan text"
	if doc.Content != wantContent {
		t.Errorf("Content = %q, want %q", doc.Content, wantContent)
	}

	if got := doc.Metadata[MetaCompanyName].TextValue(); got != "Acme Corp" {
		t.Errorf("Metadata[companyName] = %v, want Acme Corp", got)
	}
	if got := doc.Metadata[MetaEnriched].TextValue(); got != "true" {
		t.Errorf("Metadata[enriched] = %v, want true", got)
	}

	tags := doc.Metadata[MetaTags].TagsValue()
	if len(tags) != 2 || tags[0] != "vip" || tags[1] != "engineering" {
		t.Errorf("Metadata[tags] = %v, want [vip engineering]", tags)
	}

	if !doc.CreatedAt.Equal(created) || !doc.UpdatedAt.Equal(updated) {
		t.Errorf("timestamps = %v/%v, want %v/%v", doc.CreatedAt, doc.UpdatedAt, created, updated)
	}
}

func TestNewCardDocument_MinimalCard(t *testing.T) {
	now := time.Now()
	card, _ := NewCard("card-2", "Bob", now, now)

	doc := NewCardDocument(card)

	if doc.Content != "" {
		t.Errorf("Content = %q, want empty for card with no optional fields", doc.Content)
	}
	if got := doc.Metadata[MetaEnriched].TextValue(); got != "false" {
		t.Errorf("Metadata[enriched] = %v, want false", got)
	}
	if got := doc.Metadata[MetaTags].TagsValue(); len(got) != 0 {
		t.Errorf("Metadata[tags] = %v, want empty", got)
	}
}

func TestNewCompanyDocument(t *testing.T) {
	now := time.Now()
	company, err := NewCompany("co-1", "Acme Corp", now, now)
	if err != nil {
		t.Fatalf("NewCompany() error = %v", err)
	}
	company.SetProfile("acme.com", "Widget maker", "Manufacturing")
	company.SetAddress("2 Factory Rd")
	company.SetTags([]string{"supplier"})
	company.SetUserID("user-1")

	doc := NewCompanyDocument(company)

	if doc.Type != DocumentTypeCompany {
		t.Errorf("Type = %v, want %v", doc.Type, DocumentTypeCompany)
	}
	if doc.Title != "Acme Corp" {
		t.Errorf("Title = %v, want Acme Corp", doc.Title)
	}

	wantContent := "Widget maker Manufacturing acme.com 2 Factory Rd"
	if doc.Content != wantContent {
		t.Errorf("Content = %q, want %q", doc.Content, wantContent)
	}

	if got := doc.Metadata[MetaDomain].TextValue(); got != "acme.com" {
		t.Errorf("Metadata[domain] = %v, want acme.com", got)
	}
	if got := doc.Metadata[MetaIndustry].TextValue(); got != "Manufacturing" {
		t.Errorf("Metadata[industry] = %v, want Manufacturing", got)
	}
}

func TestJoinContent_SkipsBlanks(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{"all present", []string{"a", "b", "c"}, "a b c"},
		{"blanks skipped", []string{"a", "", "  ", "c"}, "a c"},
		{"all blank", []string{"", " "}, ""},
		{"empty input", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinContent(tt.parts...); got != tt.want {
				t.Errorf("joinContent(%v) = %q, want %q", tt.parts, got, tt.want)
			}
		})
	}
}
