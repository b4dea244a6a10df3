package llm

import "context"

type contextKey string

const callIDContextKey contextKey = "llm-call-id"

// WithCallID returns a context carrying an id that ties provider logs to one logical call.
func WithCallID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, callIDContextKey, id)
}

// callIDFromContext extracts the call id, if any.
func callIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return "-"
	}
	if value, ok := ctx.Value(callIDContextKey).(string); ok && value != "" {
		return value
	}
	return "-"
}
