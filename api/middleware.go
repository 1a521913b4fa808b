// Package api is the trade manager's control-plane HTTP surface: a
// health check, manual cycle triggers, and a read-back of the
// notification feed. The core engine (cycle, decision, scanner) has no
// HTTP dependency at all; this package only wires it to one.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/alexherrero/tradekeeper/tracing"
)

// TraceMiddleware injects a trace ID into the request context for
// structured logging correlation, reusing chi's request ID when
// present so API logs and cycle logs share one correlation scheme.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := middleware.GetReqID(r.Context())
		if traceID == "" {
			traceID = tracing.NewTraceID()
		}
		ctx := tracing.WithTraceID(r.Context(), traceID)
		w.Header().Set("X-Trace-ID", traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// zerologLogger logs each request's method, path, status and duration
// through the trace-scoped logger so it lines up with cycle log lines.
func zerologLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		tracing.Logger(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	})
}
