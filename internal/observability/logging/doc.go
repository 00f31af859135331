// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the service.
//
// Key features:
//   - JSON (default) and text output formats via LOG_FORMAT
//   - Level selection via LOG_LEVEL
//   - Request ID propagation
//   - Context-carried loggers
//
// Example usage:
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//
//	func handle(ctx context.Context) {
//	    logger := logging.WithRequestID(ctx, logging.FromContext(ctx))
//	    logger.Info("serving feed", slog.String("feed", "videos"))
//	}
package logging
