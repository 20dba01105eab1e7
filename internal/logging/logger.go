// Package logging is the structured logger shared by the server and the
// client. Both backends mask values whose key looks like a credential
// ("password", "token", "secret", "seed", "digest").
package logging

import "context"

// Logger takes a message plus alternating key/value pairs:
//
//	log.Info(ctx, "login succeeded", "user_id", id, "audience_id", aud)
type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always carries args.
	With(args ...any) Logger
}
