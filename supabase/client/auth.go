package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Auth returns an auth client.
func (c *Client) Auth() *AuthClient {
	return &AuthClient{client: c, now: time.Now}
}

// AuthClient handles GoTrue authentication calls.
type AuthClient struct {
	client *Client
	now    func() time.Time
}

// AuthResponse is the response from token grants.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// User represents a Supabase user.
type User struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	Role             string         `json:"role"`
	EmailConfirmedAt string         `json:"email_confirmed_at"`
	CreatedAt        string         `json:"created_at"`
	LastSignInAt     string         `json:"last_sign_in_at"`
	AppMetadata      map[string]any `json:"app_metadata"`
	UserMetadata     map[string]any `json:"user_metadata"`
}

// SignIn exchanges email and password for a session. The session is
// retained only when the client persists sessions.
func (a *AuthClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal credentials: %w", err)
	}

	resp, err := a.client.request(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", body, nil)
	if err != nil {
		return nil, err
	}

	var authResp AuthResponse
	if err := resp.JSON(&authResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	session := &Session{
		AccessToken:  authResp.AccessToken,
		RefreshToken: authResp.RefreshToken,
		User:         authResp.User,
	}
	if authResp.ExpiresIn > 0 {
		session.ExpiresAt = a.now().Add(time.Duration(authResp.ExpiresIn) * time.Second)
	}
	a.client.sessions.Save(session)
	return session, nil
}

// GetUser returns the user owning accessToken. An empty token falls back to
// the retained session.
func (a *AuthClient) GetUser(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		s := a.client.sessions.Load()
		if s == nil {
			return nil, fmt.Errorf("no access token and no active session")
		}
		accessToken = s.AccessToken
	}

	extra := http.Header{}
	extra.Set("Authorization", "Bearer "+accessToken)
	resp, err := a.client.request(ctx, http.MethodGet, "/auth/v1/user", nil, extra)
	if err != nil {
		return nil, err
	}

	var user User
	if err := resp.JSON(&user); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &user, nil
}

// SignOut revokes the retained session and forgets it locally.
func (a *AuthClient) SignOut(ctx context.Context) error {
	s := a.client.sessions.Load()
	if s == nil {
		return nil
	}
	a.client.sessions.Clear()

	extra := http.Header{}
	extra.Set("Authorization", "Bearer "+s.AccessToken)
	_, err := a.client.request(ctx, http.MethodPost, "/auth/v1/logout", nil, extra)
	return err
}

// ListUsers pages through users via the admin endpoint. Requires the service role key.
func (a *AuthClient) ListUsers(ctx context.Context, page, perPage int) ([]User, error) {
	path := fmt.Sprintf("/auth/v1/admin/users?page=%d&per_page=%d", page, perPage)
	resp, err := a.client.request(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Users []User `json:"users"`
	}
	if err := resp.JSON(&out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return out.Users, nil
}
