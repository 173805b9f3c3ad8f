package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
)

// Logger is the service-wide slog instance, set by Init or InitWithOTel.
var Logger *slog.Logger

// Init sets up JSON logging to stdout only.
func Init() {
	InitWithOTel(false)
}

// InitWithOTel sets up JSON logging to stdout, optionally fanned out to the
// OTel log exporter as well. Stdout always carries trace_id/span_id so local
// logs correlate with traces even when export is off.
func InitWithOTel(enableOTel bool) {
	stdout := NewTraceContextHandler(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromEnv(),
	}))

	var handler slog.Handler = stdout
	if enableOTel {
		handler = &fanoutHandler{targets: []slog.Handler{
			stdout,
			otelslog.NewHandler(
				"contact-indexer",
				otelslog.WithLoggerProvider(global.GetLoggerProvider()),
			),
		}}
	}

	Logger = slog.New(handler)
	GlobalContext = NewContextLogger(Logger)

	Logger.Info("logger initialized", "otel_enabled", enableOTel)
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// fanoutHandler duplicates each record to every target that accepts its
// level.
type fanoutHandler struct {
	targets []slog.Handler
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, target := range h.targets {
		if target.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, target := range h.targets {
		if target.Enabled(ctx, r.Level) {
			_ = target.Handle(ctx, r)
		}
	}
	return nil
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	targets := make([]slog.Handler, len(h.targets))
	for i, target := range h.targets {
		targets[i] = target.WithAttrs(attrs)
	}
	return &fanoutHandler{targets: targets}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	targets := make([]slog.Handler, len(h.targets))
	for i, target := range h.targets {
		targets[i] = target.WithGroup(name)
	}
	return &fanoutHandler{targets: targets}
}
