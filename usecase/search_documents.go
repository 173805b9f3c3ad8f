package usecase

import (
	"context"

	"contact-indexer/domain"
	"contact-indexer/monitor"
	"contact-indexer/port"
	"contact-indexer/utils"
	appOtel "contact-indexer/utils/otel"
)

// SearchDocumentsUsecase runs one search: sanitize the free text, validate
// the request, delegate to the backend, and feed the monitor.
type SearchDocumentsUsecase struct {
	backend   port.SearchBackend
	sanitizer *utils.QuerySanitizer
	monitor   *monitor.SearchMonitor
}

func NewSearchDocumentsUsecase(backend port.SearchBackend, mon *monitor.SearchMonitor) *SearchDocumentsUsecase {
	return &SearchDocumentsUsecase{
		backend:   backend,
		sanitizer: utils.NewQuerySanitizer(utils.DefaultSecurityConfig()),
		monitor:   mon,
	}
}

func (u *SearchDocumentsUsecase) Execute(ctx context.Context, docType domain.DocumentType, q domain.SearchQuery) (*domain.SearchResponse, error) {
	if err := u.sanitizer.ValidateQuery(ctx, q.Q); err != nil {
		u.monitor.RecordError(q.Q, err)
		return nil, domain.NewSearchQueryError(domain.CodeInvalidQuery, err.Error())
	}

	sanitized, err := u.sanitizer.SanitizeQuery(ctx, q.Q)
	if err != nil {
		u.monitor.RecordError(q.Q, err)
		return nil, domain.NewSearchQueryError(domain.CodeInvalidQuery, err.Error())
	}
	q.Q = sanitized

	if err := q.Validate(); err != nil {
		u.monitor.RecordError(q.Q, err)
		return nil, err
	}

	resp, err := u.backend.Search(ctx, docType, q)
	if err != nil {
		u.monitor.RecordError(q.Q, err)
		appOtel.RecordError(ctx, "search")
		return nil, err
	}

	u.monitor.RecordQuery(q.Q, resp.Took)
	appOtel.RecordSearchDuration(ctx, string(docType), resp.Took)
	return resp, nil
}
