package events

import (
	"context"

	"github.com/offlinefoundation/core/internal/logger"
)

// LogSink emits every published event as a structured log line. It is
// registered only by callers of Register; no sink is registered by default.
type LogSink struct{}

// Emit logs the event at info level, carrying its fields as slog attrs.
func (LogSink) Emit(e Event) {
	args := make([]any, 0, len(e.Fields)*2+2)
	args = append(args, "kind", e.Kind)
	for k, v := range e.Fields {
		args = append(args, k, v)
	}
	logger.InfoCtx(context.Background(), "event", args...)
}
