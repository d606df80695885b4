package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

// Generate creates a new unique request ID for an outgoing call.
func Generate() string {
	return uuid.New().String()
}

// ToContext adds a request ID to the context
func ToContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// FromContext extracts the request ID from the context.
// Returns empty string if request ID is not found.
func FromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// FromResponse extracts the correlation ID the server attached to a
// response. Returns empty string when the server did not supply one.
func FromResponse(header http.Header, fallback string) string {
	if header == nil {
		return fallback
	}
	if id := header.Get("X-Request-ID"); id != "" {
		return id
	}
	return fallback
}
