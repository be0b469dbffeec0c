package testutil

import (
	"sync"

	"github.com/R3E-Network/admin_console/internal/config"
)

// Env is a mutable in-memory environment for config.Env consumers.
type Env struct {
	mu     sync.Mutex
	values map[string]string
}

// NewEnv creates an Env holding a copy of values.
func NewEnv(values map[string]string) *Env {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Env{values: copied}
}

// Lookup implements config.Env.
func (e *Env) Lookup(key string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.values[key]
	return v, ok
}

// Set changes key.
func (e *Env) Set(key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values[key] = value
}

// Unset removes key.
func (e *Env) Unset(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.values, key)
}

// Func returns e as a config.Env.
func (e *Env) Func() config.Env {
	return e.Lookup
}

// CompleteEnv returns values for every key the admin console reads.
func CompleteEnv() map[string]string {
	return map[string]string{
		config.KeySupabaseURL:            "https://project.supabase.co",
		config.KeySupabaseAnonKey:        "anon-key",
		config.KeySupabaseServiceRoleKey: "service-role-key",
		config.KeyAdminEmail:             "ops@example.com",
		config.KeyStripeSecretKey:        "sk_test_123",
	}
}
