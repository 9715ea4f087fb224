// Package sinks provides progress.Sink implementations: structured logging,
// Prometheus collectors, and an in-memory snapshot for the status API.
package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/pdfhound/pdfhound/internal/progress"
)

// LogSink emits structured logs for the progress stream.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.logger.Info("progress event",
			zap.String("run_id", evt.RunUUID().String()),
			zap.String("kind", string(evt.Kind)),
			zap.String("url", evt.URL),
			zap.String("page", evt.Page),
			zap.Int("layer", evt.Layer),
			zap.String("tier", evt.Tier),
			zap.Int64("bytes", evt.Bytes),
			zap.Duration("dur", evt.Dur),
			zap.String("note", evt.Note),
		)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
