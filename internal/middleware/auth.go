package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/R3E-Network/admin_console/internal/logging"
	supabase "github.com/R3E-Network/admin_console/supabase/client"
)

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	userEmailKey contextKey = "user_email"
)

// UserVerifier resolves an access token to its Supabase user.
type UserVerifier interface {
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
}

// VerifierFunc acquires a verifier on demand, so the backend client is only
// built when a protected route is hit.
type VerifierFunc func() (UserVerifier, error)

// AdminAuth admits requests whose bearer token belongs to the administrator
// or to a user whose app metadata carries role "admin".
type AdminAuth struct {
	verifier   VerifierFunc
	adminEmail string
	logger     *logging.Logger
}

// NewAdminAuth creates the admin authentication middleware.
func NewAdminAuth(verifier VerifierFunc, adminEmail string, logger *logging.Logger) *AdminAuth {
	return &AdminAuth{
		verifier:   verifier,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		logger:     logger,
	}
}

// Handler returns the middleware handler
func (m *AdminAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		verifier, err := m.verifier()
		if err != nil {
			m.logger.WithContext(r.Context()).WithError(err).Error("auth backend unavailable")
			writeError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}

		user, err := verifier.GetUser(r.Context(), strings.TrimSpace(token))
		if err != nil || user == nil {
			m.logger.LogSecurityEvent(r.Context(), "invalid_token", map[string]interface{}{
				"path": r.URL.Path,
			})
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if !m.isAdmin(user) {
			m.logger.LogSecurityEvent(r.Context(), "forbidden", map[string]interface{}{
				"user_id": user.ID,
				"path":    r.URL.Path,
			})
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}

		setActor(r.Context(), user.Email)
		ctx := context.WithValue(r.Context(), userIDKey, user.ID)
		ctx = context.WithValue(ctx, userEmailKey, user.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AdminAuth) isAdmin(user *supabase.User) bool {
	if m.adminEmail != "" && strings.EqualFold(user.Email, m.adminEmail) {
		return true
	}
	role, _ := user.AppMetadata["role"].(string)
	return role == "admin"
}

// GetUserID returns the authenticated user id, or "".
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// GetUserEmail returns the authenticated user email, or "".
func GetUserEmail(ctx context.Context) string {
	email, _ := ctx.Value(userEmailKey).(string)
	return email
}

// WithUserID stores a user id in ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
