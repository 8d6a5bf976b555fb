package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"
)

// Context keys for request-scoped metadata set by middleware and read by
// services (audit enrichment, log correlation).
type contextKeyRequestID struct{}
type contextKeyClientInfo struct{}

var (
	ContextKeyRequestID  = contextKeyRequestID{}
	ContextKeyClientInfo = contextKeyClientInfo{}
)

// ClientInfo describes the calling browser, parsed once per request.
type ClientInfo struct {
	Browser string
	OS      string
}

// GetRequestID retrieves the request correlation ID from the context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// GetClientInfo retrieves the parsed user-agent info from the context.
func GetClientInfo(ctx context.Context) ClientInfo {
	if v, ok := ctx.Value(ContextKeyClientInfo).(ClientInfo); ok {
		return v
	}
	return ClientInfo{}
}

// WithRequestID injects a correlation ID, for tests that bypass the HTTP stack.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// WithClientInfo injects client info, for tests that bypass the HTTP stack.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, ContextKeyClientInfo, info)
}

// RequestID assigns each request a correlation ID, honoring an inbound
// X-Request-ID so portal-side traces line up with gateway logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientMeta parses the User-Agent header into browser/OS facts for audit
// enrichment. Parsing happens here once so domain code never sees raw
// user-agent strings.
func ClientMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := useragent.New(r.UserAgent())
		browser, version := ua.Browser()
		info := ClientInfo{
			Browser: browser + " " + version,
			OS:      ua.OS(),
		}
		if browser == "" {
			info.Browser = ""
		}
		ctx := WithClientInfo(r.Context(), info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger logs each request at debug with its correlation ID.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.DebugContext(r.Context(), "request handled",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", GetRequestID(r.Context()),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
