package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xraph/keeper/access"
	"github.com/xraph/keeper/id"
	"github.com/xraph/keeper/session"
	"github.com/xraph/keeper/store"
	"github.com/xraph/keeper/user"
)

// dummyHash is compared against when the email is unknown so that both
// failure paths cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() string {
	h, _ := HashPassword("keeper-unknown-user")
	return h
})

// Strategy authenticates users of the User list by email and password.
type Strategy struct {
	users    user.Store
	sessions session.Store
}

// NewStrategy creates a password strategy over the given stores.
func NewStrategy(users user.Store, sessions session.Store) *Strategy {
	return &Strategy{users: users, sessions: sessions}
}

// SignIn verifies the credentials and starts a session.
func (s *Strategy) SignIn(ctx context.Context, email, password string) (*session.Session, *user.User, error) {
	u, err := s.users.GetUserByEmail(ctx, user.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		ComparePassword(dummyHash(), password)
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("auth: lookup user: %w", err)
	}
	if !ComparePassword(u.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}
	sess, err := s.sessions.Create(ctx, u.ID.String())
	if err != nil {
		return nil, nil, fmt.Errorf("auth: create session: %w", err)
	}
	return sess, u, nil
}

// SignOut ends the session identified by token.
func (s *Strategy) SignOut(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Resolve maps a token to the subject it authenticates. An unknown token,
// an expired session, or a deleted user all resolve to the anonymous
// subject (nil). Errors are reserved for store failures.
func (s *Strategy) Resolve(ctx context.Context, token string) (*access.Subject, error) {
	u, err := s.ResolveUser(ctx, token)
	if err != nil || u == nil {
		return nil, err
	}
	return u.Subject(), nil
}

// ResolveUser is Resolve returning the full user record.
func (s *Strategy) ResolveUser(ctx context.Context, token string) (*user.User, error) {
	if token == "" {
		return nil, nil
	}
	sess, err := s.sessions.Get(ctx, token)
	if errors.Is(err, session.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("auth: lookup session: %w", err)
	}
	uid, err := id.ParseUserID(sess.UserID)
	if err != nil {
		return nil, nil
	}
	u, err := s.users.GetUser(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		_ = s.sessions.Delete(ctx, token)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("auth: lookup user: %w", err)
	}
	return u, nil
}
