package core

import "context"

// Context keys for run options
type contextKey string

const quietProgressKey contextKey = "quietProgress"

// WithQuietProgress suppresses progress lines for runs using this context.
// Warnings are still printed.
func WithQuietProgress(ctx context.Context) context.Context {
	return context.WithValue(ctx, quietProgressKey, true)
}

// shouldQuietProgress returns whether progress lines are suppressed
func shouldQuietProgress(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	quiet, ok := ctx.Value(quietProgressKey).(bool)
	return ok && quiet
}
