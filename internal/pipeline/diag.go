package pipeline

import (
	"context"
	"log/slog"

	"github.com/vk/tensorgridgo/internal/backend"
)

// diagLogger adapts the toolkit's severity-leveled diagnostics channel onto
// slog, applying the caller's severity threshold. It is handed out in the
// Outcome because builder generations exist whose engines log through it for
// as long as they live.
type diagLogger struct {
	logger    *slog.Logger
	threshold backend.Severity
}

func newDiagLogger(logger *slog.Logger, threshold backend.Severity) *diagLogger {
	return &diagLogger{logger: logger, threshold: threshold}
}

func (d *diagLogger) Log(sev backend.Severity, msg string) {
	if sev > d.threshold {
		return
	}
	d.logger.Log(context.Background(), slogLevel(sev), msg, "source", "toolkit")
}

func slogLevel(sev backend.Severity) slog.Level {
	switch sev {
	case backend.SeverityInternalError, backend.SeverityError:
		return slog.LevelError
	case backend.SeverityWarning:
		return slog.LevelWarn
	case backend.SeverityInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
