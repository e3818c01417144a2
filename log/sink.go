package log

import (
	"context"
	"log/slog"

	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/reglet-dev/sexpbridge/domain/ports"
)

// Attribute marking records that originate in the native runtime.
const (
	SourceKey    = "source"
	SourceNative = "native"
)

type sink struct {
	logger *slog.Logger
}

// NewSink returns a DiagnosticSink logging warnings at slog.LevelWarn and
// errors at slog.LevelError. A nil logger uses slog.Default().
func NewSink(logger *slog.Logger) ports.DiagnosticSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &sink{logger: logger}
}

func (s *sink) Emit(ctx context.Context, d entities.Diagnostic) {
	level := slog.LevelWarn
	if d.Severity == entities.SeverityError {
		level = slog.LevelError
	}
	attrs := []slog.Attr{slog.String(SourceKey, SourceNative)}
	if d.Truncated {
		attrs = append(attrs, slog.Bool("truncated", true))
	}
	s.logger.LogAttrs(ctx, level, d.Message, attrs...)
}
