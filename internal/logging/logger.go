// Package logging is the structured logger shared by the client and the
// reference backend. The only implementation wraps slog.
package logging

import "context"

// Logger writes leveled records. args are key/value pairs:
//
//	log.Info(ctx, "signed in", "user_id", id)
//
// A request id stored with ContextWithRequestID is added to every record
// logged with that ctx.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	With(args ...any) Logger
}

// RequestIDKey is the attribute name used for request ids.
const RequestIDKey = "request_id"

type requestIDCtxKey struct{}

// ContextWithRequestID returns ctx tagged with id. An empty id leaves ctx
// unchanged.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDCtxKey{}, id)
}

// RequestIDFrom returns the id stored by ContextWithRequestID, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey{}).(string)
	return id
}
