package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/R3E-Network/admin_console/internal/logging"
)

// TraceHeader carries the request trace id in both directions.
const TraceHeader = "X-Trace-ID"

type requestInfoKey struct{}

// requestInfo is filled in by inner middleware and read back when the
// request log is written.
type requestInfo struct {
	actor string
}

func setActor(ctx context.Context, email string) {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		info.actor = email
	}
}

// TracingMiddleware tags every request with a trace id and writes one log line
// per request with the matched route and, on admin routes, the acting admin.
type TracingMiddleware struct {
	logger *logging.Logger
}

// NewTracingMiddleware creates a new tracing middleware
func NewTracingMiddleware(logger *logging.Logger) *TracingMiddleware {
	return &TracingMiddleware{
		logger: logger,
	}
}

// Handler returns the tracing middleware handler
func (m *TracingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = logging.NewTraceID()
		}
		w.Header().Set(TraceHeader, traceID)

		info := &requestInfo{}
		ctx := logging.WithTraceID(r.Context(), traceID)
		ctx = context.WithValue(ctx, requestInfoKey{}, info)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rw, r.WithContext(ctx))

		fields := map[string]interface{}{"route": routeTemplate(r)}
		if info.actor != "" {
			fields["actor"] = info.actor
		}
		m.logger.LogRequest(ctx, r.Method, r.URL.Path, rw.statusCode, time.Since(start), fields)
	})
}

// routeTemplate returns the mux path template the request matched, or
// "unmatched" outside a router.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
