package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"contact-indexer/domain"
	"contact-indexer/logger"
	"contact-indexer/port"
	appOtel "contact-indexer/utils/otel"
)

// DefaultReindexBatchSize is the keyset page size ReindexAll pulls from the
// primary store per round trip when the caller does not configure one.
const DefaultReindexBatchSize = 100

// batchWorkers bounds concurrent upserts inside one batch.
const batchWorkers = 4

// BatchFailure is one document that could not be indexed in a batch.
type BatchFailure struct {
	ID  string
	Err string
}

// BatchResult reports a best-effort batch: how many documents landed and
// which ones did not. A batch never aborts on a single document.
type BatchResult struct {
	Indexed int
	Failed  []BatchFailure
}

// ReindexResult reports one full rebuild run.
type ReindexResult struct {
	JobID     string
	Cards     int
	Companies int
	Failed    int
	Took      time.Duration
}

// IndexStats reports per-type index size and freshness.
type IndexStats struct {
	Cards     *domain.IndexInfo
	Companies *domain.IndexInfo
}

// IndexDocumentsUsecase orchestrates write-path indexing: single upserts from
// events and admin calls, best-effort batches, deletes, and the full rebuild
// that streams every record out of the primary store.
type IndexDocumentsUsecase struct {
	backend   port.SearchBackend
	records   port.RecordRepository
	batchSize int
}

func NewIndexDocumentsUsecase(backend port.SearchBackend, records port.RecordRepository, batchSize int) *IndexDocumentsUsecase {
	if batchSize <= 0 {
		batchSize = DefaultReindexBatchSize
	}
	return &IndexDocumentsUsecase{backend: backend, records: records, batchSize: batchSize}
}

func (u *IndexDocumentsUsecase) IndexDocument(ctx context.Context, doc domain.IndexableDocument) error {
	if err := u.backend.UpsertDocument(ctx, doc); err != nil {
		appOtel.RecordError(ctx, "index")
		return err
	}
	appOtel.RecordIndexed(ctx, string(doc.Type), 1)
	return nil
}

// IndexDocuments upserts a batch with bounded concurrency. Per-document
// failures are collected, not propagated; the caller decides what a partial
// batch means.
func (u *IndexDocumentsUsecase) IndexDocuments(ctx context.Context, docs []domain.IndexableDocument) *BatchResult {
	result := &BatchResult{}
	if len(docs) == 0 {
		return result
	}
	start := time.Now()

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, batchWorkers)

	for _, doc := range docs {
		wg.Add(1)
		sem <- struct{}{}
		go func(doc domain.IndexableDocument) {
			defer wg.Done()
			defer func() { <-sem }()
			err := u.backend.UpsertDocument(ctx, doc)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, BatchFailure{ID: doc.ID, Err: err.Error()})
				return
			}
			result.Indexed++
		}(doc)
	}
	wg.Wait()

	appOtel.RecordIndexed(ctx, string(docs[0].Type), result.Indexed)
	appOtel.RecordBatchDuration(ctx, string(docs[0].Type), time.Since(start))
	return result
}

func (u *IndexDocumentsUsecase) RemoveDocument(ctx context.Context, docType domain.DocumentType, id string) error {
	if err := u.backend.DeleteDocument(ctx, docType, id); err != nil {
		appOtel.RecordError(ctx, "delete")
		return err
	}
	appOtel.RecordDeleted(ctx, string(docType), 1)
	return nil
}

// IndexCardByID reads one card from the primary store and upserts its
// document. Administrative single-document endpoint path.
func (u *IndexDocumentsUsecase) IndexCardByID(ctx context.Context, id string) error {
	card, err := u.records.GetCardByID(ctx, id)
	if err != nil {
		return err
	}
	return u.backend.UpsertDocument(ctx, domain.NewCardDocument(card))
}

// IndexCompanyByID reads one company from the primary store and upserts its
// document.
func (u *IndexDocumentsUsecase) IndexCompanyByID(ctx context.Context, id string) error {
	company, err := u.records.GetCompanyByID(ctx, id)
	if err != nil {
		return err
	}
	return u.backend.UpsertDocument(ctx, domain.NewCompanyDocument(company))
}

// ReindexAll rebuilds both indexes by paging every record out of the primary
// store and upserting its document. Existing documents are overwritten in
// place, so searches keep answering while the rebuild runs. Repository
// failures abort the run; per-document upsert failures are counted and
// skipped.
func (u *IndexDocumentsUsecase) ReindexAll(ctx context.Context) (*ReindexResult, error) {
	result := &ReindexResult{JobID: uuid.NewString()}
	ctx = logger.WithJobID(ctx, result.JobID)
	start := time.Now()

	if err := u.reindexCards(ctx, result); err != nil {
		return nil, err
	}
	if err := u.reindexCompanies(ctx, result); err != nil {
		return nil, err
	}

	result.Took = time.Since(start)
	logJobDone(ctx, "reindex_all", result.Took)
	return result, nil
}

// ReindexCards rebuilds only the card index.
func (u *IndexDocumentsUsecase) ReindexCards(ctx context.Context) (*ReindexResult, error) {
	result := &ReindexResult{JobID: uuid.NewString()}
	ctx = logger.WithJobID(ctx, result.JobID)
	start := time.Now()
	if err := u.reindexCards(ctx, result); err != nil {
		return nil, err
	}
	result.Took = time.Since(start)
	logJobDone(ctx, "reindex_cards", result.Took)
	return result, nil
}

// ReindexCompanies rebuilds only the company index.
func (u *IndexDocumentsUsecase) ReindexCompanies(ctx context.Context) (*ReindexResult, error) {
	result := &ReindexResult{JobID: uuid.NewString()}
	ctx = logger.WithJobID(ctx, result.JobID)
	start := time.Now()
	if err := u.reindexCompanies(ctx, result); err != nil {
		return nil, err
	}
	result.Took = time.Since(start)
	logJobDone(ctx, "reindex_companies", result.Took)
	return result, nil
}

// logJobDone records job completion with the context's correlation keys.
// GlobalContext is nil until bootstrap initializes logging.
func logJobDone(ctx context.Context, operation string, took time.Duration) {
	if logger.GlobalContext != nil {
		logger.GlobalContext.LogDurationTime(ctx, operation, took)
	}
}

func (u *IndexDocumentsUsecase) reindexCards(ctx context.Context, result *ReindexResult) error {
	var lastCreatedAt *time.Time
	var lastID string
	for {
		cards, nextCreatedAt, nextID, err := u.records.GetCards(ctx, lastCreatedAt, lastID, u.batchSize)
		if err != nil {
			return err
		}
		if len(cards) == 0 {
			return nil
		}
		docs := make([]domain.IndexableDocument, 0, len(cards))
		for _, card := range cards {
			docs = append(docs, domain.NewCardDocument(card))
		}
		batch := u.IndexDocuments(ctx, docs)
		result.Cards += batch.Indexed
		result.Failed += len(batch.Failed)
		lastCreatedAt, lastID = nextCreatedAt, nextID
	}
}

func (u *IndexDocumentsUsecase) reindexCompanies(ctx context.Context, result *ReindexResult) error {
	var lastCreatedAt *time.Time
	var lastID string
	for {
		companies, nextCreatedAt, nextID, err := u.records.GetCompanies(ctx, lastCreatedAt, lastID, u.batchSize)
		if err != nil {
			return err
		}
		if len(companies) == 0 {
			return nil
		}
		docs := make([]domain.IndexableDocument, 0, len(companies))
		for _, company := range companies {
			docs = append(docs, domain.NewCompanyDocument(company))
		}
		batch := u.IndexDocuments(ctx, docs)
		result.Companies += batch.Indexed
		result.Failed += len(batch.Failed)
		lastCreatedAt, lastID = nextCreatedAt, nextID
	}
}

// Stats reports both indexes' document counts and last-update times.
func (u *IndexDocumentsUsecase) Stats(ctx context.Context) (*IndexStats, error) {
	cards, err := u.backend.Info(ctx, domain.DocumentTypeCard)
	if err != nil {
		return nil, err
	}
	companies, err := u.backend.Info(ctx, domain.DocumentTypeCompany)
	if err != nil {
		return nil, err
	}
	return &IndexStats{Cards: cards, Companies: companies}, nil
}
