package testutil

import (
	"net/http"
	"time"

	"idlink/pkg/requestcontext"
)

// WithRequestID stamps a request ID onto the request context, standing in
// for the RequestID middleware when a handler is tested without the chain.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithClientMetadata stamps a client IP and User-Agent onto the request
// context, standing in for the ClientMetadata middleware.
func WithClientMetadata(req *http.Request, clientIP, userAgent string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), clientIP, userAgent))
}

// WithFixedTime pins the request-scoped clock so created-at ordering in the
// identity graph is deterministic.
func WithFixedTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
