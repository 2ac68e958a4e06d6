// Package logging provides structured logging utilities for agenda-extractor.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Text or JSON handlers selected at startup (Setup)
//   - Consistent attribute naming across the codebase
//   - Token and email sanitization
//   - An adapter that routes robfig/cron logging through slog
//
// # Usage Patterns
//
//	logger := logging.WithOperation(slog.Default(), "calendar.fetch")
//	logger.Info("fetched events",
//	    logging.Range("2025-03-01", "2025-03-31"),
//	    logging.Status(logging.StatusSuccess))
//
// # Security Considerations
//
//   - Tokens are never logged directly, only their length
//   - Service-account subjects are hashed before logging
package logging
