// Package logger provides structured logging for loresync.
//
// It wraps log/slog behind a small Logger interface:
//
//   - logger.go: handler construction, dynamic level, process default
//   - context.go: operation and subsystem ids carried through context
//   - redact.go: masking of game-master secrets before they reach a sink
//
// Hook failures inside the coordinator are reported only through this
// package, so the default level keeps warnings visible.
package logger
