package notify

import (
	"context"

	"github.com/salewatch/salewatch/internal/logger"
)

// LogSink writes notifications to the log instead of delivering them.
// Used when no Telegram token is configured.
type LogSink struct {
	log logger.Interface
}

// NewLogSink creates a log-only sink.
func NewLogSink(log logger.Interface) *LogSink {
	return &LogSink{log: log}
}

// Send logs the notification.
func (s *LogSink) Send(ctx context.Context, mediaURL, text string) error {
	s.log.Info("notification (log sink)",
		"media_url", mediaURL,
		"text", text,
	)
	return nil
}
