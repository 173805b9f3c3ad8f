package domain

import (
	"errors"
	"time"
)

// DocumentType identifies which index and schema apply to a record.
type DocumentType string

const (
	DocumentTypeCard    DocumentType = "card"
	DocumentTypeCompany DocumentType = "company"
)

// ParseDocumentType validates a caller-supplied document type.
func ParseDocumentType(s string) (DocumentType, error) {
	switch DocumentType(s) {
	case DocumentTypeCard, DocumentTypeCompany:
		return DocumentType(s), nil
	default:
		return "", NewSearchQueryError(CodeInvalidType, "unknown document type: "+s)
	}
}

// Card is a contact card record, reduced to the fields needed to build a
// searchable document. The primary store owns everything else.
type Card struct {
	id              string
	name            string
	email           string
	phone           string
	companyName     string
	jobTitle        string
	address         string
	notes           string
	ocrText         string
	tags            []string
	userID          string
	enrichmentCount int
	createdAt       time.Time
	updatedAt       time.Time
}

func NewCard(id, name string, createdAt, updatedAt time.Time) (*Card, error) {
	if id == "" {
		return nil, errors.New("card ID cannot be empty")
	}
	if name == "" {
		return nil, errors.New("card name cannot be empty")
	}
	return &Card{id: id, name: name, createdAt: createdAt, updatedAt: updatedAt}, nil
}

func (c *Card) ID() string           { return c.id }
func (c *Card) Name() string         { return c.name }
func (c *Card) Email() string        { return c.email }
func (c *Card) Phone() string        { return c.phone }
func (c *Card) CompanyName() string  { return c.companyName }
func (c *Card) JobTitle() string     { return c.jobTitle }
func (c *Card) Address() string      { return c.address }
func (c *Card) Notes() string        { return c.notes }
func (c *Card) OCRText() string      { return c.ocrText }
func (c *Card) UserID() string       { return c.userID }
func (c *Card) CreatedAt() time.Time { return c.createdAt }
func (c *Card) UpdatedAt() time.Time { return c.updatedAt }

// Tags returns the card's tag list, never nil.
func (c *Card) Tags() []string {
	if c.tags == nil {
		return []string{}
	}
	return c.tags
}

// Enriched reports whether at least one enrichment result is linked.
func (c *Card) Enriched() bool { return c.enrichmentCount > 0 }

func (c *Card) SetContact(email, phone string)          { c.email, c.phone = email, phone }
func (c *Card) SetCompany(companyName, jobTitle string) { c.companyName, c.jobTitle = companyName, jobTitle }
func (c *Card) SetAddress(address string)               { c.address = address }
func (c *Card) SetNotes(notes string)                   { c.notes = notes }
func (c *Card) SetOCRText(text string)                  { c.ocrText = text }
func (c *Card) SetTags(tags []string)                   { c.tags = tags }
func (c *Card) SetUserID(userID string)                 { c.userID = userID }
func (c *Card) SetEnrichmentCount(n int)                { c.enrichmentCount = n }

// Company is a company record, reduced the same way as Card.
type Company struct {
	id              string
	name            string
	domainName      string
	description     string
	industry        string
	address         string
	tags            []string
	userID          string
	enrichmentCount int
	createdAt       time.Time
	updatedAt       time.Time
}

func NewCompany(id, name string, createdAt, updatedAt time.Time) (*Company, error) {
	if id == "" {
		return nil, errors.New("company ID cannot be empty")
	}
	if name == "" {
		return nil, errors.New("company name cannot be empty")
	}
	return &Company{id: id, name: name, createdAt: createdAt, updatedAt: updatedAt}, nil
}

func (c *Company) ID() string           { return c.id }
func (c *Company) Name() string         { return c.name }
func (c *Company) DomainName() string   { return c.domainName }
func (c *Company) Description() string  { return c.description }
func (c *Company) Industry() string     { return c.industry }
func (c *Company) Address() string      { return c.address }
func (c *Company) UserID() string       { return c.userID }
func (c *Company) CreatedAt() time.Time { return c.createdAt }
func (c *Company) UpdatedAt() time.Time { return c.updatedAt }

func (c *Company) Tags() []string {
	if c.tags == nil {
		return []string{}
	}
	return c.tags
}

func (c *Company) Enriched() bool { return c.enrichmentCount > 0 }

func (c *Company) SetProfile(domainName, description, industry string) {
	c.domainName, c.description, c.industry = domainName, description, industry
}
func (c *Company) SetAddress(address string) { c.address = address }
func (c *Company) SetTags(tags []string)     { c.tags = tags }
func (c *Company) SetUserID(userID string)   { c.userID = userID }
func (c *Company) SetEnrichmentCount(n int)  { c.enrichmentCount = n }
