package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/admin_console/internal/config"
	"github.com/R3E-Network/admin_console/internal/logging"
	supabase "github.com/R3E-Network/admin_console/supabase/client"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(GetUserID(r.Context())))
})

type fakeVerifier map[string]*supabase.User

func (f fakeVerifier) GetUser(_ context.Context, token string) (*supabase.User, error) {
	if u, ok := f[token]; ok {
		return u, nil
	}
	return nil, errors.New("invalid token")
}

func newAuth(verifier UserVerifier, err error) *AdminAuth {
	return NewAdminAuth(func() (UserVerifier, error) {
		return verifier, err
	}, "Ops@Example.com", logging.NewDiscard("auth-test"))
}

func TestAdminAuth(t *testing.T) {
	verifier := fakeVerifier{
		"admin-token": {ID: "u-admin", Email: "ops@example.com"},
		"role-token":  {ID: "u-role", Email: "x@example.com", AppMetadata: map[string]any{"role": "admin"}},
		"user-token":  {ID: "u-user", Email: "user@example.com"},
	}
	handler := newAuth(verifier, nil).Handler(okHandler)

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"no header", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, ""},
		{"non admin", "Bearer user-token", http.StatusForbidden, ""},
		{"admin email", "Bearer admin-token", http.StatusOK, "u-admin"},
		{"admin role", "Bearer role-token", http.StatusOK, "u-role"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tc.status, rr.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rr.Body.String())
			}
		})
	}
}

func TestAdminAuth_BackendMisconfigured(t *testing.T) {
	handler := newAuth(nil, &config.MissingConfigurationError{Key: config.KeySupabaseServiceRoleKey}).Handler(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.NotContains(t, rr.Body.String(), config.KeySupabaseServiceRoleKey)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2, logging.NewDiscard("ratelimit-test"))
	handler := rl.Handler(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// A different user has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	req = req.WithContext(WithUserID(req.Context(), "u-1"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1, logging.NewDiscard("ratelimit-test"))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("a")
	now = now.Add(time.Minute)
	rl.getLimiter("b")

	assert.Equal(t, 1, rl.Cleanup(30*time.Second))
	assert.Len(t, rl.visitors, 1)
}

func TestCORS(t *testing.T) {
	handler := NewCORSMiddleware([]string{"https://admin.example.com/"}).Handler(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, "https://admin.example.com", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/admin/users", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestTracing_PropagatesAndGeneratesTraceID(t *testing.T) {
	var seen string
	handler := NewTracingMiddleware(logging.NewDiscard("tracing-test")).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(TraceHeader, "abc")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rr.Header().Get(TraceHeader))

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NotEmpty(t, rr.Header().Get(TraceHeader))
	assert.Equal(t, seen, rr.Header().Get(TraceHeader))
}

func TestTracing_LogsRouteAndActor(t *testing.T) {
	logger := logging.New("tracing-test", "debug", "json")
	logger.SetOutput(io.Discard)
	hook := logtest.NewLocal(logger.Logger)

	auth := newAuth(fakeVerifier{"admin-token": {ID: "u-admin", Email: "ops@example.com"}}, nil)

	r := mux.NewRouter()
	r.Use(NewTracingMiddleware(logger).Handler)
	r.Handle("/api/admin/profiles/{id}", auth.Handler(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/profiles/p1", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "/api/admin/profiles/{id}", entry.Data["route"])
	assert.Equal(t, "/api/admin/profiles/p1", entry.Data["path"])
	assert.Equal(t, "ops@example.com", entry.Data["actor"])

	hook.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/admin/profiles/p1", nil))
	entry = hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, http.StatusUnauthorized, entry.Data["status"])
	assert.NotContains(t, entry.Data, "actor")
}

func TestTracing_OutsideRouter(t *testing.T) {
	logger := logging.New("tracing-test", "debug", "json")
	logger.SetOutput(io.Discard)
	hook := logtest.NewLocal(logger.Logger)

	NewTracingMiddleware(logger).Handler(okHandler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "unmatched", hook.LastEntry().Data["route"])
}
