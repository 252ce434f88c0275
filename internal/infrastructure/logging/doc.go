// Package logging provides structured logging for Feedline Core.
//
// It wraps log/slog so every component logs the same way: JSON in
// production, text for development, with service and version attached to
// every entry.
//
// Logging is configured via the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// Never log secrets, bearer tokens or password hashes.
package logging
