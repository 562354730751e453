package core

import "context"

// Context keys for rating options
type contextKey string

const (
	runIDKey        contextKey = "runID"
	skipSnapshotKey contextKey = "skipSnapshotCache"
)

// withRunID tags the context with the run being scored
func withRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// runIDFromContext returns the run ID stored in the context, or ""
func runIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// WithFreshSnapshot makes the rater bypass cached snapshots for this context.
// Fresh snapshots are still written back to the cache.
func WithFreshSnapshot(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipSnapshotKey, true)
}

// shouldSkipSnapshotCache returns whether cached snapshots must be ignored
func shouldSkipSnapshotCache(ctx context.Context) bool {
	val := ctx.Value(skipSnapshotKey)
	if val == nil {
		return false // default: use the cache
	}
	skip, ok := val.(bool)
	return ok && skip
}
