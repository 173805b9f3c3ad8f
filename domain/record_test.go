package domain

import (
	"testing"
	"time"
)

func TestNewCard(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		id      string
		cardName string
		wantErr bool
	}{
		{"valid card", "card-1", "Alice Smith", false},
		{"empty id", "", "Alice Smith", true},
		{"empty name", "card-1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, err := NewCard(tt.id, tt.cardName, now, now)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewCard() error = nil, wantErr %v", tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewCard() error = %v", err)
			}
			if card.ID() != tt.id {
				t.Errorf("ID() = %v, want %v", card.ID(), tt.id)
			}
			if card.Name() != tt.cardName {
				t.Errorf("Name() = %v, want %v", card.Name(), tt.cardName)
			}
		})
	}
}

func TestNewCompany(t *testing.T) {
	now := time.Now()

	if _, err := NewCompany("", "Acme", now, now); err == nil {
		t.Error("NewCompany() with empty id should fail")
	}
	if _, err := NewCompany("co-1", "", now, now); err == nil {
		t.Error("NewCompany() with empty name should fail")
	}

	company, err := NewCompany("co-1", "Acme", now, now)
	if err != nil {
		t.Fatalf("NewCompany() error = %v", err)
	}
	if company.Name() != "Acme" {
		t.Errorf("Name() = %v, want Acme", company.Name())
	}
}

func TestCard_Tags_NeverNil(t *testing.T) {
	card, _ := NewCard("card-1", "Alice", time.Now(), time.Now())
	if card.Tags() == nil {
		t.Error("Tags() should never return nil")
	}
	if len(card.Tags()) != 0 {
		t.Errorf("Tags() = %v, want empty", card.Tags())
	}

	card.SetTags([]string{"vip"})
	if len(card.Tags()) != 1 || card.Tags()[0] != "vip" {
		t.Errorf("Tags() = %v, want [vip]", card.Tags())
	}
}

func TestCard_Enriched(t *testing.T) {
	card, _ := NewCard("card-1", "Alice", time.Now(), time.Now())
	if card.Enriched() {
		t.Error("Enriched() = true for card with no enrichments")
	}
	card.SetEnrichmentCount(2)
	if !card.Enriched() {
		t.Error("Enriched() = false for card with enrichments")
	}
}

func TestParseDocumentType(t *testing.T) {
	tests := []struct {
		input   string
		want    DocumentType
		wantErr bool
	}{
		{"card", DocumentTypeCard, false},
		{"company", DocumentTypeCompany, false},
		{"", "", true},
		{"article", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDocumentType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDocumentType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseDocumentType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
