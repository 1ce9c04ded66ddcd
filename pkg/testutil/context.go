package testutil

import (
	"context"
	"net/http"

	"evento/internal/platform/middleware"
)

// WithUser adds an authenticated identity to the request context.
// This simulates what the auth middleware does for requests carrying a valid
// bearer token, so handlers can be tested without minting real tokens.
func WithUser(req *http.Request, userID, username, avatarURL string) *http.Request {
	ctx := req.Context()
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUsername, username)
	ctx = context.WithValue(ctx, middleware.ContextKeyAvatarURL, avatarURL)
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
