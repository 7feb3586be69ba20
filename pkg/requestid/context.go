package requestid

import "context"

type contextKey struct{}

// WithContext stores the request ID. Background jobs use it to give a
// sweep run one correlation id across all the transitions it produces.
func WithContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

// FromContext returns the stored request ID or "".
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
