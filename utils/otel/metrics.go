package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the metric instruments for contact-indexer. It is nil until
// InitMetrics runs, so callers must nil-check before recording.
var Metrics *ContactIndexerMetrics

// ContactIndexerMetrics contains all metric instruments.
type ContactIndexerMetrics struct {
	IndexedTotal   metric.Int64Counter
	DeletedTotal   metric.Int64Counter
	ErrorsTotal    metric.Int64Counter
	BatchDuration  metric.Float64Histogram
	SearchDuration metric.Float64Histogram
}

// InitMetrics initializes all metric instruments.
func InitMetrics() error {
	meter := otel.Meter("contact-indexer")

	indexedTotal, err := meter.Int64Counter("contact_indexer_indexed_total",
		metric.WithDescription("Total number of documents indexed"),
	)
	if err != nil {
		return err
	}

	deletedTotal, err := meter.Int64Counter("contact_indexer_deleted_total",
		metric.WithDescription("Total number of documents removed from the index"),
	)
	if err != nil {
		return err
	}

	errorsTotal, err := meter.Int64Counter("contact_indexer_errors_total",
		metric.WithDescription("Total number of indexing and search errors"),
	)
	if err != nil {
		return err
	}

	batchDuration, err := meter.Float64Histogram("contact_indexer_batch_duration_seconds",
		metric.WithDescription("Batch indexing duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	searchDuration, err := meter.Float64Histogram("contact_indexer_search_duration_seconds",
		metric.WithDescription("Search request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	Metrics = &ContactIndexerMetrics{
		IndexedTotal:   indexedTotal,
		DeletedTotal:   deletedTotal,
		ErrorsTotal:    errorsTotal,
		BatchDuration:  batchDuration,
		SearchDuration: searchDuration,
	}

	return nil
}

// RecordIndexed records documents added or updated in the index.
func RecordIndexed(ctx context.Context, docType string, count int) {
	if Metrics == nil || count <= 0 {
		return
	}
	Metrics.IndexedTotal.Add(ctx, int64(count), metric.WithAttributes(attribute.String("doc_type", docType)))
}

// RecordDeleted records documents removed from the index.
func RecordDeleted(ctx context.Context, docType string, count int) {
	if Metrics == nil || count <= 0 {
		return
	}
	Metrics.DeletedTotal.Add(ctx, int64(count), metric.WithAttributes(attribute.String("doc_type", docType)))
}

// RecordError records a failed operation.
func RecordError(ctx context.Context, operation string) {
	if Metrics == nil {
		return
	}
	Metrics.ErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordBatchDuration records how long a batch indexing pass took.
func RecordBatchDuration(ctx context.Context, docType string, d time.Duration) {
	if Metrics == nil {
		return
	}
	Metrics.BatchDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("doc_type", docType)))
}

// RecordSearchDuration records how long a search request took.
func RecordSearchDuration(ctx context.Context, docType string, d time.Duration) {
	if Metrics == nil {
		return
	}
	Metrics.SearchDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("doc_type", docType)))
}
