package utilities

import "context"

type userIDKey struct{}

// ContextWithUserID returns a child context carrying the authenticated
// user's ID.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the authenticated user ID injected by the auth
// middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok
}
