// Package session keeps the sessions of signed-in users.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for an unknown or expired token.
var ErrNotFound = errors.New("session: not found")

// Session binds an opaque bearer token to a user.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions.
type Store interface {
	// Create starts a new session for the user.
	Create(ctx context.Context, userID string) (*Session, error)

	// Get returns a live session by token.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete ends a session. Unknown tokens are ignored.
	Delete(ctx context.Context, token string) error

	// DeleteUser ends every session of a user.
	DeleteUser(ctx context.Context, userID string) error
}
