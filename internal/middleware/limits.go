package middleware

import (
	"context"
	"net/http"
	"time"
)

const (
	KB = 1024
	MB = 1024 * KB

	// DefaultMaxBodySize caps incoming JSON request bodies.
	DefaultMaxBodySize = 1 * MB

	// DefaultTimeout bounds end-to-end request handling. Rendering a
	// PDF through headless Chrome is the slowest path, so the bound is
	// generous relative to the JSON endpoints.
	DefaultTimeout = 60 * time.Second
)

// MaxBodySize limits the size of request bodies
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Timeout cancels the request context after the given duration. Handlers
// observe cancellation through ctx.Done() the same way they observe a
// client disconnect.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
