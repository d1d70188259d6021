// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"accounts/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates that the email or password was
	// incorrect. Unknown email and wrong password are deliberately
	// indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrSessionNotFound indicates that the session token does not resolve.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound indicates that the user record no longer exists.
	ErrUserNotFound = errors.New("user not found")
)

// DefaultSessionTTL is how long a session stays valid after issue.
const DefaultSessionTTL = 30 * 24 * time.Hour

// AuthService handles account registration, credential checking, and
// session lifecycle.
type AuthService struct {
	users      domain.UserRepository
	sessions   domain.SessionRepository
	sessionTTL time.Duration
}

// NewAuthService creates a new authentication service. A non-positive
// ttl falls back to DefaultSessionTTL.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		sessionTTL: ttl,
	}
}

// SessionTTL returns the configured session lifetime.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// RegisterInput carries the fields accepted at registration. Name and
// AvatarURL are optional.
type RegisterInput struct {
	Email                string
	Password             string
	PasswordConfirmation string
	Name                 string
	AvatarURL            string
}

// UpdateInput carries a partial profile update. Nil fields are left
// untouched.
type UpdateInput struct {
	Name                 *string
	AvatarURL            *string
	Password             *string
	PasswordConfirmation *string
}

// Register validates the input, persists a new user, and opens a session
// for it. Validation failures return domain.ValidationErrors with no
// session side effect.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, string, error) {
	errs := domain.ValidateEmail(in.Email)

	if errs == nil {
		existing, err := s.users.GetByEmail(ctx, in.Email)
		if err != nil {
			return nil, "", fmt.Errorf("register: %w", err)
		}
		if existing != nil {
			errs = append(errs, domain.MsgEmailTaken)
		}
	}

	errs = append(errs, domain.ValidatePassword(in.Password, in.PasswordConfirmation)...)
	if len(errs) > 0 {
		return nil, "", errs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: string(hash),
		Name:         in.Name,
		AvatarURL:    in.AvatarURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent registration can win the race past the GetByEmail
		// check; the store's unique constraint settles it.
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, "", domain.ValidationErrors{domain.MsgEmailTaken}
		}
		return nil, "", fmt.Errorf("register: %w", err)
	}

	token, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login authenticates a user by email and password and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("login: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout invalidates a session. Destroying an unknown or already-invalid
// token is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// CurrentUser resolves a session token to its user. Malformed and
// unknown tokens both return ErrSessionNotFound.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile applies a partial update to the user behind the given
// session. Changing the password revokes every other session for the
// user; the caller's own session (token) stays valid. Validation
// failures leave the stored record untouched.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, token string, in UpdateInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if in.Password != nil {
		confirmation := ""
		if in.PasswordConfirmation != nil {
			confirmation = *in.PasswordConfirmation
		}
		if errs := domain.ValidatePassword(*in.Password, confirmation); len(errs) > 0 {
			return nil, errs
		}
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.AvatarURL != nil {
		user.AvatarURL = *in.AvatarURL
	}

	passwordChanged := false
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		user.PasswordHash = string(hash)
		passwordChanged = true
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	if passwordChanged {
		if err := s.sessions.DeleteOtherForUser(ctx, user.ID, token); err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
	}
	return user, nil
}

func (s *AuthService) createSession(ctx context.Context, userID string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	expiresAt := time.Now().Add(s.sessionTTL)
	if err := s.sessions.Create(ctx, userID, token, expiresAt); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
