package logging

import (
	"log/slog"
)

// CronAdapter adapts an slog.Logger to the logger interface expected by
// github.com/robfig/cron/v3 (Info and Error with alternating key-value pairs).
type CronAdapter struct {
	logger *slog.Logger
}

// NewCronAdapter creates a new CronAdapter wrapping the given slog.Logger.
// If logger is nil, slog.Default() is used.
func NewCronAdapter(logger *slog.Logger) *CronAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CronAdapter{logger: logger}
}

// Info logs scheduler progress. cron reports every wake-up at info level,
// which is debug noise for this application.
func (a *CronAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, keysAndValues...)
}

// Error logs a scheduler error with key-value pairs.
func (a *CronAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{Err(err)}, keysAndValues...)
	a.logger.Error(msg, args...)
}

// Logger returns the underlying slog.Logger for direct access when needed.
func (a *CronAdapter) Logger() *slog.Logger {
	return a.logger
}
