package middleware

import (
	"context"
	"net/http"
)

// ContextKey is the type for context keys.
type ContextKey string

const (
	// UserIDContextKey is the context key for the caller's user ID.
	UserIDContextKey ContextKey = "user_id"

	// UserIDHeader carries the verified caller identity. The API gateway
	// terminates authentication and is the only party allowed to set it.
	UserIDHeader = "X-User-ID"
)

// Identity extracts the caller identity set by the gateway and rejects
// requests that arrive without one.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(UserIDHeader)
		if userID == "" {
			http.Error(w, "missing caller identity", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CallerID extracts the caller's user ID from context.
func CallerID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(string)
	return userID, ok
}
