package domain

import (
	"context"
	"time"
)

// Session represents an active login session. The token is the sole
// artifact of authentication state carried between requests.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionRepository defines the port for session persistence operations.
// GetByToken returns (nil, nil) for unknown tokens.
type SessionRepository interface {
	Create(ctx context.Context, userID, token string, expiresAt time.Time) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteOtherForUser(ctx context.Context, userID, keepToken string) error
	DeleteExpired(ctx context.Context) error
}
