// Package requestid assigns a unique ID to every HTTP request and makes
// it available via the request context and the X-Request-Id header.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// Header is the HTTP header carrying the request ID.
const Header = "X-Request-Id"

// Middleware attaches a request ID to each request. An ID supplied by the
// caller in the X-Request-Id header is kept; otherwise a new UUID is
// generated. The ID is echoed in the response header.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(Header)
		if reqID == "" {
			reqID = uuid.New().String()
		}

		w.Header().Set(Header, reqID)
		ctx := WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, requestIDKey, reqID)
}

// FromContext returns the request ID from the context, or "" if absent.
func FromContext(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey).(string); ok {
		return reqID
	}
	return ""
}
