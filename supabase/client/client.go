// Package client is a small Supabase REST client covering the PostgREST,
// RPC and Auth endpoints the admin console uses.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/R3E-Network/admin_console/internal/httputil"
)

// DefaultTimeout applies when Config.HTTPClient is nil.
const DefaultTimeout = 30 * time.Second

// Client is a Supabase REST API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	headers    http.Header
	sessions   SessionStore
	persist    bool
	maxBody    int64
}

// Config holds client configuration.
type Config struct {
	URL    string
	APIKey string
	// PersistSession keeps the session returned by sign-in and uses its access
	// token on later requests. Disable it for privileged, stateless clients.
	PersistSession bool
	// Headers are sent on every request.
	Headers map[string]string
	// Sessions overrides the in-memory session store when PersistSession is set.
	Sessions   SessionStore
	HTTPClient *http.Client

	// MaxResponseBytes caps successful response bodies. Defaults to
	// httputil.MaxResponseBytes.
	MaxResponseBytes int64
}

// New creates a new Supabase client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("APIKey is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	headers := make(http.Header, len(cfg.Headers))
	for k, v := range cfg.Headers {
		if v != "" {
			headers.Set(k, v)
		}
	}

	var sessions SessionStore = discardStore{}
	if cfg.PersistSession {
		sessions = cfg.Sessions
		if sessions == nil {
			sessions = NewMemoryStore()
		}
	}

	maxBody := cfg.MaxResponseBytes
	if maxBody <= 0 {
		maxBody = httputil.MaxResponseBytes
	}

	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(cfg.URL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: httpClient,
		headers:    headers,
		sessions:   sessions,
		persist:    cfg.PersistSession,
		maxBody:    maxBody,
	}, nil
}

// URL returns the project base URL.
func (c *Client) URL() string {
	return c.baseURL
}

// PersistSession reports whether sessions are retained between calls.
func (c *Client) PersistSession() bool {
	return c.persist
}

// Headers returns a copy of the headers sent on every request.
func (c *Client) Headers() http.Header {
	return c.headers.Clone()
}

// Session returns the retained session, or nil.
func (c *Client) Session() *Session {
	return c.sessions.Load()
}

// RPC calls a stored procedure.
func (c *Client) RPC(ctx context.Context, fn string, params any) (*Response, error) {
	var body []byte
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		body = data
	}
	return c.request(ctx, http.MethodPost, "/rest/v1/rpc/"+fn, body, nil)
}

// Response is a raw API response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Count returns the total row count from Content-Range, present when the
// query asked for one with QueryBuilder.Count.
func (r *Response) Count() (int64, bool) {
	cr := r.Headers.Get("Content-Range")
	_, total, ok := strings.Cut(cr, "/")
	if !ok || total == "*" {
		return 0, false
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Err returns an *APIError if the response indicates failure.
func (r *Response) Err() error {
	if r.StatusCode < 400 {
		return nil
	}
	apiErr := &APIError{StatusCode: r.StatusCode}
	if gjson.ValidBytes(r.Body) {
		fields := gjson.GetManyBytes(r.Body, "message", "error_description", "msg", "error", "code")
		for _, f := range fields[:4] {
			if f.Type == gjson.String && f.String() != "" {
				apiErr.Message = f.String()
				break
			}
		}
		apiErr.Code = fields[4].String()
	}
	return apiErr
}

// APIError is a non-2xx Supabase response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// NoRows reports whether a Single query matched no row.
func (e *APIError) NoRows() bool {
	return e.Code == "PGRST116"
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("supabase error: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("supabase error: status %d", e.StatusCode)
}

func (c *Client) request(ctx context.Context, method, path string, body []byte, extra http.Header) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range extra {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return resp, err
	}
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) {
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("apikey", c.apiKey)

	token := c.apiKey
	if s := c.sessions.Load(); s != nil && s.AccessToken != "" {
		token = s.AccessToken
	}
	req.Header.Set("Authorization", "Bearer "+token)

	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	var body []byte
	if resp.StatusCode >= 400 {
		body, _, err = httputil.ReadAllWithLimit(resp.Body, httputil.MaxErrorBodyBytes)
	} else {
		body, err = httputil.ReadAllStrict(resp.Body, c.maxBody)
	}
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    resp.Header,
	}, nil
}
