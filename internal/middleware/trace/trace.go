// Package trace assigns request ids and logs request start and completion.
package trace

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	applog "tietkiem/internal/log"
)

type ContextKey string

const (
	RequestIDKey    ContextKey = "request_id"
	RequestIDHeader            = "X-Request-ID"
)

// Middleware handles request tracing and logging.
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *applog.Logger
	requests  atomic.Int64
	lastMs    atomic.Int64
}

// Metrics is a snapshot of request counters.
type Metrics struct {
	TotalRequests  int64
	LastDurationMs int64
}

func NewMiddleware(logger *applog.Logger, extractIP func(*http.Request) string) *Middleware {
	return &Middleware{extractIP: extractIP, logger: logger.WithComponent(applog.ComponentHTTP)}
}

// Middleware reuses an incoming X-Request-ID when present and echoes it back.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	structured := applog.NewStructuredLogger(m.logger)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}
		requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if requestID == "" || len(requestID) > 64 {
			requestID = GenerateRequestID()
		}

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = context.WithValue(ctx, applog.LoggerContextKey, m.logger.With(applog.FieldRequestID, requestID))
		r = r.WithContext(ctx)
		w.Header().Set(RequestIDHeader, requestID)

		structured.LogHTTPStart(ctx, r, requestID, clientIP)
		m.requests.Add(1)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		durationMs := time.Since(start).Milliseconds()
		m.lastMs.Store(durationMs)
		structured.LogHTTPEnd(ctx, r, requestID, rw.statusCode, durationMs, clientIP)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func (m *Middleware) GetMetrics() Metrics {
	return Metrics{TotalRequests: m.requests.Load(), LastDurationMs: m.lastMs.Load()}
}
