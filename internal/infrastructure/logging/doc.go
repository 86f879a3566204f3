// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Logs go to stderr by default so stdout stays free for the launcher's
// own output.
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: "info"})
//	logger.Info("Kernel attached", zap.String("kernel_id", id))
//	logger.Error("Failed to parse connection file", zap.Error(err))
package logging
