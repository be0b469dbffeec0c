// Package client is a minimal Stripe REST client for the admin console's
// billing views.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/R3E-Network/admin_console/internal/httputil"
)

// DefaultBaseURL is the Stripe API endpoint.
const DefaultBaseURL = "https://api.stripe.com"

// Client is a Stripe API client bound to one secret key and, optionally,
// one pinned API version.
type Client struct {
	baseURL    string
	secretKey  string
	apiVersion string
	httpClient *http.Client
	maxBody    int64
}

// Config holds client configuration.
type Config struct {
	SecretKey string
	// APIVersion pins every request to this version. Empty means the
	// account's default version applies.
	APIVersion string
	BaseURL    string
	HTTPClient *http.Client

	// MaxResponseBytes caps successful response bodies. Defaults to
	// httputil.MaxResponseBytes.
	MaxResponseBytes int64
}

// New creates a new Stripe client.
func New(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.SecretKey)
	if key == "" {
		return nil, fmt.Errorf("secret key is required")
	}

	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 80 * time.Second}
	}

	maxBody := cfg.MaxResponseBytes
	if maxBody <= 0 {
		maxBody = httputil.MaxResponseBytes
	}

	return &Client{
		baseURL:    baseURL,
		secretKey:  key,
		apiVersion: strings.TrimSpace(cfg.APIVersion),
		httpClient: httpClient,
		maxBody:    maxBody,
	}, nil
}

// APIVersion returns the pinned API version, or "" when the account default applies.
func (c *Client) APIVersion() string {
	return c.apiVersion
}

// Error is a Stripe error response.
type Error struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("stripe error: %s: %s (status %d)", e.Type, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("stripe error: status %d", e.StatusCode)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return c.call(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	return c.call(ctx, http.MethodPost, path, form, out)
}

func (c *Client) call(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _, err := httputil.ReadAllWithLimit(resp.Body, httputil.MaxErrorBodyBytes)
		if err != nil {
			return fmt.Errorf("read error response: %w", err)
		}
		return parseError(resp.StatusCode, data)
	}

	data, err := httputil.ReadAllStrict(resp.Body, c.maxBody)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if c.apiVersion != "" {
		req.Header.Set("Stripe-Version", c.apiVersion)
	}
}

func parseError(status int, body []byte) error {
	e := &Error{StatusCode: status}
	if gjson.ValidBytes(body) {
		res := gjson.GetBytes(body, "error")
		e.Type = res.Get("type").String()
		e.Code = res.Get("code").String()
		e.Message = res.Get("message").String()
	}
	return e
}
