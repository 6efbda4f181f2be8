package simplepacks

import (
	"context"
	"log/slog"
)

// LoggingEventSink writes pack events to a structured logger
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates an event sink backed by logger; nil uses slog.Default()
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

// PackCreated logs the created pack
func (s *LoggingEventSink) PackCreated(ctx context.Context, pack PackRecord, result *PackCreateResult) error {
	s.logger.InfoContext(ctx, "Pack created",
		"pack_id", result.ID,
		"name", pack.Name,
		"rarity", pack.Rarity,
		"sounds", len(result.SoundURLs))
	return nil
}
