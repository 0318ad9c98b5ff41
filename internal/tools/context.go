package tools

import "context"

type userKey struct{}

// WithUser binds the acting username into the context so account-scoped
// handlers (portfolio, watchlist) know whose data to touch.
func WithUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, userKey{}, username)
}

// UserFrom extracts the acting username from the context
func UserFrom(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(userKey{}).(string)
	return u, ok && u != ""
}
