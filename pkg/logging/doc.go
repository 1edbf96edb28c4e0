// Package logging provides structured logging configuration for mockgate.
//
// This package wraps log/slog so that the gateway, the dispatcher and the
// module registry all log the same way.
//
// # Usage
//
//	logger, closer, err := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//	defer closer.Close()
//
//	logger.Info("mock module resolved", "identity", "user/list")
//
// # Levels
//
// Mock misses are reported at Info: a missing module is an expected condition
// while mocks are being written. Handler faults are reported at Error.
//
// # Integration
//
// Components accept a *slog.Logger through an option. If no logger is
// provided, they use logging.Nop().
package logging
