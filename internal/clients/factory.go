// Package clients owns the process-wide clients for the external services the
// admin console talks to: the Supabase backend (browser and server flavours)
// and the Stripe payment gateway.
//
// Each client is built on first use from only the keys it needs, then shared.
// A missing key fails the caller that needed the client and nothing else.
//
// The server client carries the service role key. Only server-side handlers may
// call Server; nothing rendered for or served to a browser should hold it.
package clients

import (
	"fmt"
	"net/http"

	"github.com/R3E-Network/admin_console/internal/config"
	"github.com/R3E-Network/admin_console/internal/logging"
	"github.com/R3E-Network/admin_console/internal/metrics"
	payments "github.com/R3E-Network/admin_console/payments/client"
	supabase "github.com/R3E-Network/admin_console/supabase/client"
)

// Client names used in logs and metrics.
const (
	NameBrowser  = "supabase_browser"
	NameServer   = "supabase_server"
	NamePayments = "stripe"
)

// ClientInfoHeader identifies requests made by the server client.
const (
	ClientInfoHeader = "X-Client-Info"
	ClientInfoServer = "admin-console-server"
)

// Factory lazily builds and caches one client per external service.
type Factory struct {
	env        config.Env
	log        *logging.Logger
	httpClient *http.Client

	browser  Handle[*supabase.Client]
	server   Handle[*supabase.Client]
	payments Handle[*payments.Client]
}

// Option configures a Factory.
type Option func(*Factory)

// WithHTTPClient sets the HTTP client shared by every constructed client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Factory) { f.httpClient = c }
}

// WithLogger sets the factory logger.
func WithLogger(l *logging.Logger) Option {
	return func(f *Factory) { f.log = l }
}

// NewFactory creates a factory reading keys from env. Nothing is read until a
// client is first requested.
func NewFactory(env config.Env, opts ...Option) *Factory {
	if env == nil {
		env = config.OSEnv
	}
	f := &Factory{env: env}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = logging.NewDefault("clients")
	}
	return f
}

// Browser returns the low-privilege Supabase client. Sessions persist.
func (f *Factory) Browser() (*supabase.Client, error) {
	return f.browser.Get(func() (*supabase.Client, error) {
		url, err := f.lookup(NameBrowser, config.KeySupabaseURL)
		if err != nil {
			return nil, err
		}
		key, err := f.lookup(NameBrowser, config.KeySupabaseAnonKey)
		if err != nil {
			return nil, err
		}
		c, err := supabase.New(supabase.Config{
			URL:            url,
			APIKey:         key,
			PersistSession: true,
			HTTPClient:     f.httpClient,
		})
		return built(f, NameBrowser, c, err)
	})
}

// Server returns the privileged Supabase client. It never persists a session
// and tags every request with ClientInfoHeader.
func (f *Factory) Server() (*supabase.Client, error) {
	return f.server.Get(func() (*supabase.Client, error) {
		url, err := f.lookup(NameServer, config.KeySupabaseURL)
		if err != nil {
			return nil, err
		}
		key, err := f.lookup(NameServer, config.KeySupabaseServiceRoleKey)
		if err != nil {
			return nil, err
		}
		c, err := supabase.New(supabase.Config{
			URL:            url,
			APIKey:         key,
			PersistSession: false,
			Headers:        map[string]string{ClientInfoHeader: ClientInfoServer},
			HTTPClient:     f.httpClient,
		})
		return built(f, NameServer, c, err)
	})
}

// Payments returns the Stripe client, pinned to STRIPE_API_VERSION when set.
func (f *Factory) Payments() (*payments.Client, error) {
	return f.payments.Get(func() (*payments.Client, error) {
		key, err := f.lookup(NamePayments, config.KeyStripeSecretKey)
		if err != nil {
			return nil, err
		}
		c, err := payments.New(payments.Config{
			SecretKey:  key,
			APIVersion: config.Optional(f.env, config.KeyStripeAPIVersion),
			HTTPClient: f.httpClient,
		})
		if err == nil {
			f.log.WithField("client", NamePayments).WithField("api_version", versionLabel(c.APIVersion())).Debug("payment client version")
		}
		return built(f, NamePayments, c, err)
	})
}

func (f *Factory) lookup(client, key string) (string, error) {
	v, err := config.Lookup(f.env, key)
	if err != nil {
		metrics.RecordMissingConfiguration(key)
		f.log.WithFields(map[string]interface{}{
			"client": client,
			"key":    key,
		}).Error("client configuration missing")
		return "", fmt.Errorf("%s client: %w", client, err)
	}
	return v, nil
}

func built[T any](f *Factory, name string, c T, err error) (T, error) {
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s client: %w", name, err)
	}
	metrics.RecordClientConstructed(name)
	f.log.WithField("client", name).Info("client constructed")
	return c, nil
}

func versionLabel(v string) string {
	if v == "" {
		return "account-default"
	}
	return v
}

var defaultFactory = NewFactory(config.OSEnv)

// Default returns the process-wide factory.
func Default() *Factory {
	return defaultFactory
}

// Browser returns the process-wide low-privilege Supabase client.
func Browser() (*supabase.Client, error) {
	return defaultFactory.Browser()
}

// Server returns the process-wide privileged Supabase client.
func Server() (*supabase.Client, error) {
	return defaultFactory.Server()
}

// Payments returns the process-wide Stripe client.
func Payments() (*payments.Client, error) {
	return defaultFactory.Payments()
}
