// Package middleware provides the HTTP middleware chain: request IDs,
// request-scoped logging, Prometheus metrics and request limits.
package middleware

// contextKey is a private type for context values set by this package.
type contextKey string
