package event

import (
	"context"
	"log/slog"
)

// LogSink writes each event as a structured log record.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(e Event) {
	level := slog.LevelDebug
	if e.Outcome == OutcomeFailed || e.Outcome == OutcomeMissing {
		level = slog.LevelWarn
	}
	attrs := []any{"kind", string(e.Kind), "name", e.Name, "outcome", e.Outcome}
	if e.Detail != "" {
		attrs = append(attrs, "detail", e.Detail)
	}
	if e.Kind == KindTool {
		attrs = append(attrs, "exit_code", e.ExitCode)
	}
	if e.Duration > 0 {
		attrs = append(attrs, "duration", e.Duration.String())
	}
	s.logger.Log(context.Background(), level, "Build event.", attrs...)
}
