package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/admin_console/internal/httputil"
)

type recorded struct {
	method string
	path   string
	query  string
	header http.Header
	body   string
}

type recorder struct {
	mu    sync.Mutex
	calls []recorded
}

func (r *recorder) all() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded(nil), r.calls...)
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.calls = append(rec.calls, recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			header: r.Header.Clone(),
			body:   string(body),
		})
		rec.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{APIKey: "k"})
	assert.Error(t, err)

	_, err = New(Config{URL: "https://x.supabase.co"})
	assert.Error(t, err)

	c, err := New(Config{URL: "https://x.supabase.co/", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "https://x.supabase.co", c.URL())
	assert.False(t, c.PersistSession())
}

func TestClient_SendsGlobalHeaders(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	c, err := New(Config{
		URL:     srv.URL,
		APIKey:  "service-key",
		Headers: map[string]string{"X-Client-Info": "admin-console-server"},
	})
	require.NoError(t, err)

	_, err = c.From("profiles").Select("id,email").Eq("role", "admin").Order("created_at", false).Limit(10).Execute(context.Background())
	require.NoError(t, err)

	require.Len(t, calls.all(), 1)
	call := calls.all()[0]
	assert.Equal(t, http.MethodGet, call.method)
	assert.Equal(t, "/rest/v1/profiles", call.path)
	assert.Equal(t, "admin-console-server", call.header.Get("X-Client-Info"))
	assert.Equal(t, "service-key", call.header.Get("apikey"))
	assert.Equal(t, "Bearer service-key", call.header.Get("Authorization"))
	assert.Contains(t, call.query, "role=eq.admin")
	assert.Contains(t, call.query, "order=created_at.desc")
	assert.Contains(t, call.query, "limit=10")
}

func TestClient_ErrorResponse(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"JWT expired","code":"PGRST301"}`))
	})

	c, err := New(Config{URL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	resp, err := c.From("profiles").Execute(context.Background())
	require.Error(t, err)
	require.NotNil(t, resp)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "JWT expired", apiErr.Message)
	assert.Equal(t, "PGRST301", apiErr.Code)
}

func TestResponse_Err_NonJSONBody(t *testing.T) {
	r := &Response{StatusCode: 502, Body: []byte("bad gateway")}
	assert.EqualError(t, r.Err(), "supabase error: status 502")
	assert.NoError(t, (&Response{StatusCode: 204}).Err())
}

func TestQueryBuilder_Insert(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{"id":"1"}]`))
	})

	c, err := New(Config{URL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	resp, err := c.From("profiles").Insert(context.Background(), map[string]string{"email": "a@example.com"})
	require.NoError(t, err)

	var rows []map[string]string
	require.NoError(t, resp.JSON(&rows))
	assert.Equal(t, "1", rows[0]["id"])

	call := calls.all()[0]
	assert.Equal(t, http.MethodPost, call.method)
	assert.Equal(t, "return=representation", call.header.Get("Prefer"))
	assert.Equal(t, "application/json", call.header.Get("Content-Type"))
	assert.JSONEq(t, `{"email":"a@example.com"}`, call.body)
}

func TestRPC(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`42`))
	})

	c, err := New(Config{URL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	resp, err := c.RPC(context.Background(), "count_admins", map[string]any{"active": true})
	require.NoError(t, err)
	assert.Equal(t, "42", string(resp.Body))
	assert.Equal(t, "/rest/v1/rpc/count_admins", calls.all()[0].path)
}

func authServer(t *testing.T) (*httptest.Server, *recorder) {
	return newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			_ = json.NewEncoder(w).Encode(AuthResponse{
				AccessToken:  "user-jwt",
				RefreshToken: "refresh",
				ExpiresIn:    3600,
				User:         &User{ID: "u1", Email: "a@example.com"},
			})
		case "/auth/v1/user":
			_ = json.NewEncoder(w).Encode(User{ID: "u1", Email: "a@example.com"})
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	})
}

func TestAuth_PersistedSessionIsReused(t *testing.T) {
	srv, calls := authServer(t)

	c, err := New(Config{URL: srv.URL, APIKey: "anon", PersistSession: true})
	require.NoError(t, err)

	session, err := c.Auth().SignIn(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "user-jwt", session.AccessToken)
	require.NotNil(t, c.Session())

	_, err = c.From("profiles").Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer user-jwt", calls.all()[1].header.Get("Authorization"))

	user, err := c.Auth().GetUser(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	require.NoError(t, c.Auth().SignOut(context.Background()))
	assert.Nil(t, c.Session())
}

func TestAuth_StatelessClientRetainsNoSession(t *testing.T) {
	srv, calls := authServer(t)

	c, err := New(Config{URL: srv.URL, APIKey: "service-key", PersistSession: false})
	require.NoError(t, err)

	session, err := c.Auth().SignIn(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "user-jwt", session.AccessToken)
	assert.Nil(t, c.Session())

	_, err = c.From("profiles").Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer service-key", calls.all()[1].header.Get("Authorization"))

	_, err = c.Auth().GetUser(context.Background(), "")
	assert.Error(t, err)
}

func TestClient_OversizedResponseIsRejected(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"1","email":"a@example.com"},{"id":"2","email":"b@example.com"}]`))
	})

	c, err := New(Config{URL: srv.URL, APIKey: "k", MaxResponseBytes: 32})
	require.NoError(t, err)

	_, err = c.From("profiles").Execute(context.Background())
	assert.ErrorIs(t, err, httputil.ErrBodyTooLarge)
}

func TestQueryBuilder_FiltersAndCount(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Range", "0-0/37")
		_, _ = w.Write([]byte(`[{"id":"p1"}]`))
	})

	c, err := New(Config{URL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	resp, err := c.From("profiles").
		Select("*").
		ILike("email", "*ops*").
		In("role", "admin", "support").
		Gte("created_at", "2026-01-01").
		Count("exact").
		Execute(context.Background())
	require.NoError(t, err)

	total, ok := resp.Count()
	require.True(t, ok)
	assert.Equal(t, int64(37), total)

	call := calls.all()[0]
	q, err := url.ParseQuery(call.query)
	require.NoError(t, err)
	assert.Equal(t, "ilike.*ops*", q.Get("email"))
	assert.Equal(t, "in.(admin,support)", q.Get("role"))
	assert.Equal(t, "gte.2026-01-01", q.Get("created_at"))
	assert.Equal(t, "count=exact", call.header.Get("Prefer"))
}

func TestResponse_CountAbsent(t *testing.T) {
	resp := &Response{Headers: http.Header{}}
	_, ok := resp.Count()
	assert.False(t, ok)

	resp.Headers.Set("Content-Range", "0-9/*")
	_, ok = resp.Count()
	assert.False(t, ok)
}

func TestQueryBuilder_SingleNoRows(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotAcceptable)
		_, _ = w.Write([]byte(`{"code":"PGRST116","message":"JSON object requested, multiple (or no) rows returned"}`))
	})

	c, err := New(Config{URL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = c.From("profiles").Eq("id", "missing").Single().Execute(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.NoRows())
	assert.Equal(t, "application/vnd.pgrst.object+json", calls.all()[0].header.Get("Accept"))
}

func TestQueryBuilder_UpdateAndDelete(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"p1"}]`))
	})

	c, err := New(Config{URL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = c.From("profiles").Eq("id", "p1").Update(context.Background(), map[string]string{"role": "support"})
	require.NoError(t, err)
	_, err = c.From("profiles").Eq("id", "p1").Delete(context.Background())
	require.NoError(t, err)

	all := calls.all()
	require.Len(t, all, 2)
	assert.Equal(t, http.MethodPatch, all[0].method)
	assert.Equal(t, "id=eq.p1", all[0].query)
	assert.JSONEq(t, `{"role":"support"}`, all[0].body)
	assert.Equal(t, http.MethodDelete, all[1].method)
	assert.Equal(t, "return=representation", all[1].header.Get("Prefer"))
}
