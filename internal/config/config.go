// Package config loads and validates the admin console's environment.
//
// Two access paths exist. Load validates the whole required set eagerly and is
// meant for process startup and readiness checks. Lookup checks a single key and
// is what the lazy client factories use, so a resource that is never touched
// never fails because of an unrelated missing key.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
)

// Environment keys.
const (
	KeySupabaseURL            = "SUPABASE_URL"
	KeySupabaseAnonKey        = "SUPABASE_ANON_KEY"
	KeySupabaseServiceRoleKey = "SUPABASE_SERVICE_ROLE_KEY"
	KeyAdminEmail             = "ADMIN_EMAIL"

	KeyStripeSecretKey  = "STRIPE_SECRET_KEY"
	KeyStripeAPIVersion = "STRIPE_API_VERSION"
)

// RequiredKeys is the eagerly validated set, in reporting order.
var RequiredKeys = []string{
	KeySupabaseURL,
	KeySupabaseAnonKey,
	KeySupabaseServiceRoleKey,
	KeyAdminEmail,
}

// Env looks up a single environment value.
type Env func(key string) (string, bool)

// OSEnv reads the process environment.
func OSEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapEnv returns an Env backed by a fixed map. Used by tests and tools.
func MapEnv(values map[string]string) Env {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

// Set is the validated, immutable snapshot of the required keys.
type Set struct {
	supabaseURL            string
	supabaseAnonKey        string
	supabaseServiceRoleKey string
	adminEmail             string
}

type rawSet struct {
	SupabaseURL            string `env:"SUPABASE_URL"`
	SupabaseAnonKey        string `env:"SUPABASE_ANON_KEY"`
	SupabaseServiceRoleKey string `env:"SUPABASE_SERVICE_ROLE_KEY"`
	AdminEmail             string `env:"ADMIN_EMAIL"`
}

// SupabaseURL returns the backend public endpoint.
func (s *Set) SupabaseURL() string { return s.supabaseURL }

// SupabaseAnonKey returns the backend low-privilege key.
func (s *Set) SupabaseAnonKey() string { return s.supabaseAnonKey }

// SupabaseServiceRoleKey returns the backend privileged key.
func (s *Set) SupabaseServiceRoleKey() string { return s.supabaseServiceRoleKey }

// AdminEmail returns the administrator contact address.
func (s *Set) AdminEmail() string { return s.adminEmail }

// Load validates every key in RequiredKeys against the process environment.
// The first missing key in RequiredKeys order is reported; no partial Set is returned.
func Load() (*Set, error) {
	var raw rawSet
	if err := envdecode.Decode(&raw); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	values := map[string]*string{
		KeySupabaseURL:            &raw.SupabaseURL,
		KeySupabaseAnonKey:        &raw.SupabaseAnonKey,
		KeySupabaseServiceRoleKey: &raw.SupabaseServiceRoleKey,
		KeyAdminEmail:             &raw.AdminEmail,
	}
	for _, key := range RequiredKeys {
		v := strings.TrimSpace(*values[key])
		if v == "" {
			return nil, &MissingConfigurationError{Key: key}
		}
		*values[key] = v
	}

	return &Set{
		supabaseURL:            raw.SupabaseURL,
		supabaseAnonKey:        raw.SupabaseAnonKey,
		supabaseServiceRoleKey: raw.SupabaseServiceRoleKey,
		adminEmail:             raw.AdminEmail,
	}, nil
}

// MustLoad is Load for process startup; it panics on misconfiguration.
func MustLoad() *Set {
	set, err := Load()
	if err != nil {
		panic(err)
	}
	return set
}

// Lookup returns the trimmed value of key from env, or a MissingConfigurationError.
func Lookup(env Env, key string) (string, error) {
	if env == nil {
		env = OSEnv
	}
	v, ok := env(key)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", &MissingConfigurationError{Key: key}
	}
	return v, nil
}

// Optional returns the trimmed value of key from env, or "" when unset.
func Optional(env Env, key string) string {
	if env == nil {
		env = OSEnv
	}
	v, _ := env(key)
	return strings.TrimSpace(v)
}
