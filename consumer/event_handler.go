package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"contact-indexer/domain"
	"contact-indexer/logger"
	"contact-indexer/usecase"
)

// CardEventPayload is the full card record carried by CardCreated and
// CardUpdated events. Updates carry the complete current state, so replaying
// the latest event is always safe.
type CardEventPayload struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	CompanyName     string   `json:"company_name"`
	JobTitle        string   `json:"job_title"`
	Address         string   `json:"address"`
	Notes           string   `json:"notes"`
	OCRText         string   `json:"ocr_text"`
	Tags            []string `json:"tags"`
	UserID          string   `json:"user_id"`
	EnrichmentCount int      `json:"enrichment_count"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

// CompanyEventPayload is the full company record carried by CompanyCreated
// and CompanyUpdated events.
type CompanyEventPayload struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Domain          string   `json:"domain"`
	Description     string   `json:"description"`
	Industry        string   `json:"industry"`
	Address         string   `json:"address"`
	Tags            []string `json:"tags"`
	UserID          string   `json:"user_id"`
	EnrichmentCount int      `json:"enrichment_count"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

// DeleteEventPayload identifies the record a deletion event removes.
type DeleteEventPayload struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

// ContactEventHandler applies primary-store change events to the search
// index: created and updated events upsert the transformed document, deleted
// events remove it. Unknown event types are logged and acknowledged so a
// newer producer cannot wedge the stream.
type ContactEventHandler struct {
	indexer *usecase.IndexDocumentsUsecase
	logger  *slog.Logger
}

func NewContactEventHandler(indexer *usecase.IndexDocumentsUsecase, logger *slog.Logger) *ContactEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactEventHandler{indexer: indexer, logger: logger}
}

func (h *ContactEventHandler) HandleEvent(ctx context.Context, event Event) error {
	switch event.EventType {
	case "CardCreated", "CardUpdated":
		return h.handleCardUpsert(ctx, event)
	case "CardDeleted":
		return h.handleDelete(ctx, event, domain.DocumentTypeCard)
	case "CompanyCreated", "CompanyUpdated":
		return h.handleCompanyUpsert(ctx, event)
	case "CompanyDeleted":
		return h.handleDelete(ctx, event, domain.DocumentTypeCompany)
	default:
		h.logger.Warn("unknown event type, skipping",
			"event_type", event.EventType,
			"event_id", event.EventID,
		)
		return nil
	}
}

func (h *ContactEventHandler) handleCardUpsert(ctx context.Context, event Event) error {
	var payload CardEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		h.logger.Error("failed to unmarshal card payload",
			"event_id", event.EventID,
			"error", err,
		)
		return err
	}

	card, err := domain.NewCard(payload.ID, payload.Name, parseEventTime(payload.CreatedAt), parseEventTime(payload.UpdatedAt))
	if err != nil {
		// Redelivery cannot fix a structurally invalid record; skip it.
		h.logger.Error("invalid card event, skipping",
			"event_id", event.EventID,
			"card.id", payload.ID,
			"error", err,
		)
		return nil
	}
	card.SetContact(payload.Email, payload.Phone)
	card.SetCompany(payload.CompanyName, payload.JobTitle)
	card.SetAddress(payload.Address)
	card.SetNotes(payload.Notes)
	card.SetOCRText(payload.OCRText)
	card.SetTags(payload.Tags)
	card.SetUserID(payload.UserID)
	card.SetEnrichmentCount(payload.EnrichmentCount)

	ctx = logger.WithCardID(ctx, card.ID())
	if err := h.indexer.IndexDocument(ctx, domain.NewCardDocument(card)); err != nil {
		return err
	}

	h.logger.Info("indexed card from event",
		"event_type", event.EventType,
		"card.id", payload.ID,
	)
	return nil
}

func (h *ContactEventHandler) handleCompanyUpsert(ctx context.Context, event Event) error {
	var payload CompanyEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		h.logger.Error("failed to unmarshal company payload",
			"event_id", event.EventID,
			"error", err,
		)
		return err
	}

	company, err := domain.NewCompany(payload.ID, payload.Name, parseEventTime(payload.CreatedAt), parseEventTime(payload.UpdatedAt))
	if err != nil {
		// Redelivery cannot fix a structurally invalid record; skip it.
		h.logger.Error("invalid company event, skipping",
			"event_id", event.EventID,
			"company.id", payload.ID,
			"error", err,
		)
		return nil
	}
	company.SetProfile(payload.Domain, payload.Description, payload.Industry)
	company.SetAddress(payload.Address)
	company.SetTags(payload.Tags)
	company.SetUserID(payload.UserID)
	company.SetEnrichmentCount(payload.EnrichmentCount)

	ctx = logger.WithCompanyID(ctx, company.ID())
	if err := h.indexer.IndexDocument(ctx, domain.NewCompanyDocument(company)); err != nil {
		return err
	}

	h.logger.Info("indexed company from event",
		"event_type", event.EventType,
		"company.id", payload.ID,
	)
	return nil
}

func (h *ContactEventHandler) handleDelete(ctx context.Context, event Event, docType domain.DocumentType) error {
	var payload DeleteEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		h.logger.Error("failed to unmarshal delete payload",
			"event_id", event.EventID,
			"error", err,
		)
		return err
	}

	if err := h.indexer.RemoveDocument(ctx, docType, payload.ID); err != nil {
		return err
	}

	h.logger.Info("removed document from event",
		"event_type", event.EventType,
		"doc_type", string(docType),
		"doc_id", payload.ID,
	)
	return nil
}

// parseEventTime reads the RFC3339 timestamps events carry. A malformed
// timestamp falls back to the zero time rather than dropping the record.
func parseEventTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
