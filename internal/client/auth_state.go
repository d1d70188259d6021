package client

import (
	"context"
	"sync"

	"accounts/internal/domain"
)

// AuthState is the process-wide cache of the logged-in user. It is an
// explicit, injectable container: create one per process, pass it by
// reference to whatever renders or acts on identity. The cache is
// refreshed only from server responses, never inferred locally.
//
// A single mutex serializes operations, so there is exactly one
// in-flight auth operation per container and overlapping calls cannot
// race on the cache.
type AuthState struct {
	api *Client

	mu      sync.Mutex
	user    *domain.PublicUser
	loading bool
}

// NewAuthState creates an AuthState in the loading state.
func NewAuthState(api *Client) *AuthState {
	return &AuthState{api: api, loading: true}
}

// User returns the cached user, or nil when anonymous.
func (a *AuthState) User() *domain.PublicUser {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return nil
	}
	cp := *a.user
	return &cp
}

// Loading reports whether the initial identity probe is still pending.
func (a *AuthState) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

// Bootstrap probes the server once for the current identity. The loading
// state terminates even when the probe fails, so callers are never stuck
// pending.
func (a *AuthState) Bootstrap(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	defer func() { a.loading = false }()

	user, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	a.user = user
	return nil
}

// Login authenticates and overwrites the cache on success. A non-empty
// message is the server's rejection, surfaced for display; the cache is
// untouched in that case.
func (a *AuthState) Login(ctx context.Context, email, password string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	user, msg, err := a.api.Login(ctx, email, password)
	if err != nil {
		return "", err
	}
	if msg != "" {
		return msg, nil
	}
	a.user = user
	return "", nil
}

// Signup registers and overwrites the cache on success. Validation
// messages are returned by value; the cache is untouched on failure.
func (a *AuthState) Signup(ctx context.Context, in SignupInput) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	user, msgs, err := a.api.Signup(ctx, in)
	if err != nil {
		return nil, err
	}
	if len(msgs) > 0 {
		return msgs, nil
	}
	a.user = user
	return nil, nil
}

// UpdateProfile mutates the profile and overwrites the cache from the
// response on success.
func (a *AuthState) UpdateProfile(ctx context.Context, in ProfileInput) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	user, msgs, err := a.api.UpdateProfile(ctx, in)
	if err != nil {
		return nil, err
	}
	if len(msgs) > 0 {
		return msgs, nil
	}
	a.user = user
	return nil, nil
}

// Logout calls the endpoint and then clears the cache unconditionally.
// Treating logout as locally successful even when the call fails keeps
// the UI from being stuck logged in.
func (a *AuthState) Logout(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	err := a.api.Logout(ctx)
	a.user = nil
	return err
}
