package keeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/keeper/access"
	"github.com/xraph/keeper/auth"
	"github.com/xraph/keeper/id"
	"github.com/xraph/keeper/schema"
	"github.com/xraph/keeper/session"
	"github.com/xraph/keeper/store"
	"github.com/xraph/keeper/user"
)

// UserInput carries the writable User fields. Nil fields are left
// unchanged on update.
type UserInput struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	IsAdmin  *bool   `json:"isAdmin,omitempty"`
}

// fields renders the input as User list values for schema validation.
func (in *UserInput) fields() map[string]any {
	out := make(map[string]any, 4)
	if in.Name != nil {
		out["name"] = *in.Name
	}
	if in.Email != nil {
		out["email"] = *in.Email
	}
	if in.Password != nil {
		out["password"] = *in.Password
	}
	if in.IsAdmin != nil {
		out["isAdmin"] = *in.IsAdmin
	}
	return out
}

// UserQuery selects users.
type UserQuery struct {
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// CreateUser registers a user. The password is stored as a bcrypt hash.
func (e *Engine) CreateUser(ctx context.Context, in *UserInput) (*user.User, error) {
	l, err := e.registry.Get(schema.UserList)
	if err != nil {
		return nil, err
	}
	if in == nil {
		in = &UserInput{}
	}
	if _, err := l.Normalize(in.fields(), false); err != nil {
		return nil, fieldErr(err)
	}

	now := time.Now().UTC()
	u := &user.User{ID: id.NewUserID(), CreatedAt: now, UpdatedAt: now}
	if err := e.applyUserInput(ctx, u, in); err != nil {
		return nil, err
	}

	res, err := e.authorize(ctx, access.OpCreate, schema.UserList, u)
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		return nil, fmt.Errorf("%w: create %s: %s", ErrAccessDenied, schema.UserList, res.Reason)
	}

	if err := e.store.CreateUser(ctx, u); err != nil {
		return nil, userStoreErr("create", err)
	}

	if e.plugins != nil {
		e.plugins.EmitUserCreated(ctx, u)
	}
	return u, nil
}

// GetUser returns a user the context subject may read.
func (e *Engine) GetUser(ctx context.Context, userID string) (*user.User, error) {
	u, err := e.loadUser(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, e.hiddenErr(ctx, access.OpRead, schema.UserList, err)
	}
	if err != nil {
		return nil, err
	}
	res, err := e.authorize(ctx, access.OpRead, schema.UserList, u)
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		if res.Decision.IsDeny() {
			return nil, fmt.Errorf("%w: read %s: %s", ErrAccessDenied, schema.UserList, res.Reason)
		}
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return u, nil
}

// ListUsers returns the users the context subject may read.
func (e *Engine) ListUsers(ctx context.Context, q *UserQuery) ([]*user.User, error) {
	filter, err := e.userFilter(ctx, q)
	if err != nil {
		return nil, err
	}
	filter.Limit = e.config.PageSize(filter.Limit)
	users, err := e.store.ListUsers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("keeper: list users: %w", err)
	}
	return users, nil
}

// CountUsers returns how many users the context subject may read.
func (e *Engine) CountUsers(ctx context.Context, q *UserQuery) (int64, error) {
	filter, err := e.userFilter(ctx, q)
	if err != nil {
		return 0, err
	}
	filter.Limit, filter.Offset = 0, 0
	n, err := e.store.CountUsers(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("keeper: count users: %w", err)
	}
	return n, nil
}

// UpdateUser applies a partial update to a user.
func (e *Engine) UpdateUser(ctx context.Context, userID string, in *UserInput) (*user.User, error) {
	l, err := e.registry.Get(schema.UserList)
	if err != nil {
		return nil, err
	}
	cur, err := e.loadUser(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, e.hiddenErr(ctx, access.OpUpdate, schema.UserList, err)
	}
	if err != nil {
		return nil, err
	}
	res, err := e.authorize(ctx, access.OpUpdate, schema.UserList, cur)
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		return nil, fmt.Errorf("%w: update %s: %s", ErrAccessDenied, schema.UserList, res.Reason)
	}
	if in == nil {
		return cur, nil
	}
	if _, err := l.Normalize(in.fields(), true); err != nil {
		return nil, fieldErr(err)
	}

	next := *cur
	if err := e.applyUserInput(ctx, &next, in); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now().UTC()
	if err := e.store.UpdateUser(ctx, &next); err != nil {
		return nil, userStoreErr("update", err)
	}
	if in.Password != nil {
		// A new password ends the sessions opened with the old one.
		if err := e.sessions.DeleteUser(ctx, next.ID.String()); err != nil {
			e.logger.Warn("keeper: end sessions failed", slog.String("user", userID), slog.String("error", err.Error()))
		}
	}
	return &next, nil
}

// DeleteUser removes a user and ends their sessions. Items owned by the
// user keep their owner reference.
func (e *Engine) DeleteUser(ctx context.Context, userID string) error {
	u, err := e.loadUser(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return e.hiddenErr(ctx, access.OpDelete, schema.UserList, err)
	}
	if err != nil {
		return err
	}
	res, err := e.authorize(ctx, access.OpDelete, schema.UserList, u)
	if err != nil {
		return err
	}
	if !res.Allowed {
		return fmt.Errorf("%w: delete %s: %s", ErrAccessDenied, schema.UserList, res.Reason)
	}
	if err := e.store.DeleteUser(ctx, u.ID); err != nil {
		return userStoreErr("delete", err)
	}
	if err := e.sessions.DeleteUser(ctx, u.ID.String()); err != nil {
		e.logger.Warn("keeper: end sessions failed", slog.String("user", userID), slog.String("error", err.Error()))
	}

	if e.plugins != nil {
		e.plugins.EmitUserDeleted(ctx, u.ID)
	}
	return nil
}

// SignIn authenticates by email and password and opens a session.
func (e *Engine) SignIn(ctx context.Context, email, password string) (*session.Session, *user.User, error) {
	sess, u, err := e.auth.SignIn(ctx, email, password)
	if err != nil {
		e.logger.Warn("keeper: sign-in failed", slog.String("email", user.NormalizeEmail(email)), slog.String("error", err.Error()))
		return nil, nil, err
	}
	if e.plugins != nil {
		e.plugins.EmitSignedIn(ctx, u)
	}
	return sess, u, nil
}

// SignOut ends the session identified by token.
func (e *Engine) SignOut(ctx context.Context, token string) error {
	return e.auth.SignOut(ctx, token)
}

// Authenticate resolves a session token into the subject it stands for.
// Unknown or expired tokens resolve to nil.
func (e *Engine) Authenticate(ctx context.Context, token string) (*access.Subject, error) {
	return e.auth.Resolve(ctx, token)
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (e *Engine) loadUser(ctx context.Context, userID string) (*user.User, error) {
	uid, err := id.ParseUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUserNotFound, userID)
	}
	u, err := e.store.GetUser(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("keeper: get user: %w", err)
	}
	return u, nil
}

func (e *Engine) applyUserInput(ctx context.Context, u *user.User, in *UserInput) error {
	if in.IsAdmin != nil && *in.IsAdmin != u.IsAdmin && e.config.GuardAdminFlag &&
		!access.IsAdministrator(SubjectFrom(ctx)) {
		return fmt.Errorf("%w: only administrators may change isAdmin", ErrAccessDenied)
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = user.NormalizeEmail(*in.Email)
	}
	if in.IsAdmin != nil {
		u.IsAdmin = *in.IsAdmin
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return fieldErr(err)
		}
		u.PasswordHash = hash
	}
	return nil
}

func (e *Engine) userFilter(ctx context.Context, q *UserQuery) (*user.ListFilter, error) {
	if q == nil {
		q = &UserQuery{}
	}
	res, err := e.authorize(ctx, access.OpRead, schema.UserList, nil)
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		return nil, fmt.Errorf("%w: read %s: %s", ErrAccessDenied, schema.UserList, res.Reason)
	}
	filter := &user.ListFilter{Search: q.Search, Limit: q.Limit, Offset: q.Offset}
	if f, ok := res.Decision.Filter(); ok {
		filter.Where = append(filter.Where, f)
	}
	return filter, nil
}

func userStoreErr(op string, err error) error {
	if errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("%w: %w", ErrDuplicateEmail, err)
	}
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrUserNotFound, err)
	}
	return fmt.Errorf("keeper: %s user: %w", op, err)
}
