package logger

import (
	"context"
	"log/slog"
	"time"
)

// ContextKey is the type for context keys used in logging.
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	UserIDKey    ContextKey = "user_id"
	OperationKey ContextKey = "operation"

	// Business context keys for indexer observability. These follow
	// OpenTelemetry semantic conventions with an 'indexer.' prefix.
	CardIDKey    ContextKey = "indexer.card.id"
	CompanyIDKey ContextKey = "indexer.company.id"
	JobIDKey     ContextKey = "indexer.job.id"
	DocTypeKey   ContextKey = "indexer.doc.type"
	BackendKey   ContextKey = "indexer.backend"
)

// contextKeys lists every key WithContext copies into log attributes, in
// output order.
var contextKeys = []ContextKey{
	RequestIDKey, UserIDKey, OperationKey,
	CardIDKey, CompanyIDKey, JobIDKey, DocTypeKey, BackendKey,
}

// GlobalContext is the global ContextLogger instance, set by Init.
var GlobalContext *ContextLogger

// ContextLogger wraps a slog.Logger to pull business identifiers out of the
// context, so every log line in a request or reindex job carries the same
// correlation fields without each call site repeating them.
type ContextLogger struct {
	logger *slog.Logger
}

func NewContextLogger(logger *slog.Logger) *ContextLogger {
	return &ContextLogger{logger: logger}
}

// WithContext returns a logger annotated with every context key present.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	args := make([]any, 0, 2*len(contextKeys))
	for _, key := range contextKeys {
		if v, ok := ctx.Value(key).(string); ok {
			args = append(args, string(key), v)
		}
	}
	return cl.logger.With(args...)
}

// LogDuration logs an operation completion with its duration in milliseconds.
func (cl *ContextLogger) LogDuration(ctx context.Context, operation string, durationMs int64) {
	cl.WithContext(ctx).Info("operation completed",
		"operation", operation,
		"duration_ms", durationMs,
	)
}

// LogDurationTime is LogDuration for callers holding a time.Duration.
func (cl *ContextLogger) LogDurationTime(ctx context.Context, operation string, duration time.Duration) {
	cl.LogDuration(ctx, operation, duration.Milliseconds())
}

// LogError logs an operation failure with error details.
func (cl *ContextLogger) LogError(ctx context.Context, operation string, err error) {
	cl.WithContext(ctx).Error("operation failed",
		"operation", operation,
		"error", err,
	)
}

// WithCardID adds the card ID to context for observability.
func WithCardID(ctx context.Context, cardID string) context.Context {
	return context.WithValue(ctx, CardIDKey, cardID)
}

// WithCompanyID adds the company ID to context for observability.
func WithCompanyID(ctx context.Context, companyID string) context.Context {
	return context.WithValue(ctx, CompanyIDKey, companyID)
}

// WithJobID adds the reindex job ID to context for observability.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, JobIDKey, jobID)
}

// WithDocType adds the document type to context for observability.
func WithDocType(ctx context.Context, docType string) context.Context {
	return context.WithValue(ctx, DocTypeKey, docType)
}

// WithBackend adds the active search backend name to context.
func WithBackend(ctx context.Context, backend string) context.Context {
	return context.WithValue(ctx, BackendKey, backend)
}
