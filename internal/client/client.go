// Package client is the Go consumer of the accounts API. It mirrors the
// contract the web client uses: the session token travels in an
// http-only cookie held by the jar and is never surfaced to callers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"accounts/internal/domain"
)

// Client is an HTTP client for the accounts API.
type Client struct {
	base string
	http *http.Client
}

// New creates a Client for the given base URL (e.g. "http://localhost:8080").
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Jar: jar, Timeout: 15 * time.Second},
	}, nil
}

// SignupInput carries the registration fields. Name and AvatarURL are
// optional.
type SignupInput struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Name                 string `json:"name"`
	AvatarURL            string `json:"avatar_url"`
}

// ProfileInput carries a partial profile update; nil fields are omitted
// from the request.
type ProfileInput struct {
	Name                 *string `json:"name,omitempty"`
	AvatarURL            *string `json:"avatar_url,omitempty"`
	Password             *string `json:"password,omitempty"`
	PasswordConfirmation *string `json:"password_confirmation,omitempty"`
}

// envelope is the wire shape every endpoint responds with.
type envelope struct {
	User   *domain.PublicUser `json:"user"`
	Error  string             `json:"error"`
	Errors []string           `json:"errors"`
}

// Me asks the server who the caller is. A nil user with a nil error
// means "not logged in".
func (c *Client) Me(ctx context.Context) (*domain.PublicUser, error) {
	env, _, err := c.do(ctx, http.MethodGet, "/api/v1/me", nil)
	if err != nil {
		return nil, err
	}
	return env.User, nil
}

// Signup registers a new account. Validation failures come back as
// messages, not as a transport error.
func (c *Client) Signup(ctx context.Context, in SignupInput) (*domain.PublicUser, []string, error) {
	env, status, err := c.do(ctx, http.MethodPost, "/api/v1/signup", in)
	if err != nil {
		return nil, nil, err
	}
	if status == http.StatusUnprocessableEntity {
		return nil, env.Errors, nil
	}
	if env.User == nil {
		return nil, nil, fmt.Errorf("signup: unexpected status %d", status)
	}
	return env.User, nil, nil
}

// Login authenticates with email and password. A non-empty message means
// the credentials were rejected.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.PublicUser, string, error) {
	body := map[string]string{"email": email, "password": password}
	env, status, err := c.do(ctx, http.MethodPost, "/api/v1/login", body)
	if err != nil {
		return nil, "", err
	}
	if status == http.StatusUnauthorized {
		return nil, env.Error, nil
	}
	if env.User == nil {
		return nil, "", fmt.Errorf("login: unexpected status %d", status)
	}
	return env.User, "", nil
}

// Logout destroys the server-side session. The jar drops the cookie via
// the expired Set-Cookie in the response.
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.base+"/api/v1/logout", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("logout: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// UpdateProfile applies a partial profile update for the logged-in user.
func (c *Client) UpdateProfile(ctx context.Context, in ProfileInput) (*domain.PublicUser, []string, error) {
	env, status, err := c.do(ctx, http.MethodPatch, "/api/v1/profile", in)
	if err != nil {
		return nil, nil, err
	}
	switch status {
	case http.StatusUnprocessableEntity:
		return nil, env.Errors, nil
	case http.StatusUnauthorized:
		return nil, nil, fmt.Errorf("update profile: %s", env.Error)
	}
	if env.User == nil {
		return nil, nil, fmt.Errorf("update profile: unexpected status %d", status)
	}
	return env.User, nil, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, 0, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, resp.StatusCode, fmt.Errorf("%s %s: server error %d", method, path, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return &env, resp.StatusCode, nil
}
