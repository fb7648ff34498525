package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// requestIDHeader carries the request id to clients and log correlation.
const requestIDHeader = "X-Request-ID"

type contextKey string

// requestIDKey is the context key for the request id.
const requestIDKey contextKey = "request_id"

// RequestIDMiddleware assigns each request a unique id, honoring one
// supplied by the caller, and exposes it on the response and context.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the request id stored in ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
