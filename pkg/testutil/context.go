package testutil

import (
	"context"
	"net/http"
	"time"

	"github.com/loloatlo/railrepay-eligibility-engine/pkg/requestcontext"
)

// WithRequestID adds a request ID to the request context, as the RequestID
// middleware would.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithCorrelationID adds an upstream correlation ID to the request context.
func WithCorrelationID(req *http.Request, correlationID string) *http.Request {
	return req.WithContext(requestcontext.WithCorrelationID(req.Context(), correlationID))
}

// WithRequestTime pins the request's notion of "now".
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
