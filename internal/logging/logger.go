// Package logging is the structured-logging seam for the API server and
// localbizctl. The only implementation wraps log/slog.
package logging

import "context"

// Logger takes a message plus alternating key/value attributes:
//
//	log.Warn(ctx, "rate limiter unavailable", "policy", p.Name, "err", err)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	// Warn is for degraded but recoverable states, such as a limiter
	// failing open.
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With binds attributes, e.g. a request id, to every later entry.
	With(args ...any) Logger
}
