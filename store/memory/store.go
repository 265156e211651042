// Package memory provides an in-memory implementation of the keeper
// composite store. It is intended for testing and development.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/xraph/keeper/checklog"
	"github.com/xraph/keeper/id"
	"github.com/xraph/keeper/item"
	"github.com/xraph/keeper/store"
	"github.com/xraph/keeper/user"
)

// Compile-time interface checks.
var (
	_ item.Store     = (*Store)(nil)
	_ user.Store     = (*Store)(nil)
	_ checklog.Store = (*Store)(nil)
	_ store.Store    = (*Store)(nil)
)

// Store is a thread-safe in-memory store for all keeper entities.
type Store struct {
	mu sync.RWMutex

	items     map[string]*item.Item
	users     map[string]*user.User
	emails    map[string]string // normalized email -> userID
	checkLogs map[string]*checklog.Entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		items:     make(map[string]*item.Item),
		users:     make(map[string]*user.User),
		emails:    make(map[string]string),
		checkLogs: make(map[string]*checklog.Entry),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Item Store
// ──────────────────────────────────────────────────

func (s *Store) CreateItem(_ context.Context, it *item.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[it.ID.String()]; ok {
		return fmt.Errorf("item %s: %w", it.ID, store.ErrDuplicate)
	}
	s.items[it.ID.String()] = it.Clone()
	return nil
}

func (s *Store) GetItem(_ context.Context, list string, itemID id.ItemID) (*item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[itemID.String()]
	if !ok || it.List != list {
		return nil, fmt.Errorf("%s %s: %w", list, itemID, store.ErrNotFound)
	}
	return it.Clone(), nil
}

func (s *Store) UpdateItem(_ context.Context, it *item.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[it.ID.String()]
	if !ok || cur.List != it.List {
		return fmt.Errorf("%s %s: %w", it.List, it.ID, store.ErrNotFound)
	}
	s.items[it.ID.String()] = it.Clone()
	return nil
}

func (s *Store) DeleteItem(_ context.Context, list string, itemID id.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID.String()]
	if !ok || it.List != list {
		return fmt.Errorf("%s %s: %w", list, itemID, store.ErrNotFound)
	}
	delete(s.items, itemID.String())
	return nil
}

func (s *Store) ListItems(_ context.Context, filter *item.ListFilter) ([]*item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*item.Item, 0)
	for _, it := range s.items {
		if filter.Matches(it) {
			result = append(result, it.Clone())
		}
	}
	slices.SortFunc(result, func(a, b *item.Item) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID.String(), b.ID.String()))
	})
	if filter == nil {
		return result, nil
	}
	return applyPagination(result, filter.Limit, filter.Offset), nil
}

func (s *Store) CountItems(_ context.Context, filter *item.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, it := range s.items {
		if filter.Matches(it) {
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// User Store
// ──────────────────────────────────────────────────

func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID.String()]; ok {
		return fmt.Errorf("user %s: %w", u.ID, store.ErrDuplicate)
	}
	email := user.NormalizeEmail(u.Email)
	if email != "" {
		if _, taken := s.emails[email]; taken {
			return fmt.Errorf("email %q: %w", email, store.ErrDuplicate)
		}
		s.emails[email] = u.ID.String()
	}
	s.users[u.ID.String()] = copyUser(u)
	return nil
}

func (s *Store) GetUser(_ context.Context, userID id.UserID) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID.String()]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}
	return copyUser(u), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uid, ok := s.emails[user.NormalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("user email %q: %w", email, store.ErrNotFound)
	}
	return copyUser(s.users[uid]), nil
}

func (s *Store) UpdateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[u.ID.String()]
	if !ok {
		return fmt.Errorf("user %s: %w", u.ID, store.ErrNotFound)
	}
	oldEmail, newEmail := user.NormalizeEmail(cur.Email), user.NormalizeEmail(u.Email)
	if oldEmail != newEmail {
		if newEmail != "" {
			if _, taken := s.emails[newEmail]; taken {
				return fmt.Errorf("email %q: %w", newEmail, store.ErrDuplicate)
			}
			s.emails[newEmail] = u.ID.String()
		}
		delete(s.emails, oldEmail)
	}
	s.users[u.ID.String()] = copyUser(u)
	return nil
}

func (s *Store) DeleteUser(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID.String()]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}
	delete(s.emails, user.NormalizeEmail(u.Email))
	delete(s.users, userID.String())
	return nil
}

func (s *Store) ListUsers(_ context.Context, filter *user.ListFilter) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*user.User, 0, len(s.users))
	for _, u := range s.users {
		if filter.Matches(u) {
			result = append(result, copyUser(u))
		}
	}
	slices.SortFunc(result, func(a, b *user.User) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID.String(), b.ID.String()))
	})
	if filter == nil {
		return result, nil
	}
	return applyPagination(result, filter.Limit, filter.Offset), nil
}

func (s *Store) CountUsers(_ context.Context, filter *user.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, u := range s.users {
		if filter.Matches(u) {
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Check Log Store
// ──────────────────────────────────────────────────

func (s *Store) CreateCheckLog(_ context.Context, e *checklog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkLogs[e.ID.String()] = copyCheckLog(e)
	return nil
}

func (s *Store) GetCheckLog(_ context.Context, logID id.CheckLogID) (*checklog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.checkLogs[logID.String()]
	if !ok {
		return nil, fmt.Errorf("check log %s: %w", logID, store.ErrNotFound)
	}
	return copyCheckLog(e), nil
}

func (s *Store) ListCheckLogs(_ context.Context, filter *checklog.QueryFilter) ([]*checklog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*checklog.Entry, 0, len(s.checkLogs))
	for _, e := range s.checkLogs {
		if filter.Matches(e) {
			result = append(result, copyCheckLog(e))
		}
	}
	slices.SortFunc(result, func(a, b *checklog.Entry) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID.String(), a.ID.String()))
	})
	if filter == nil {
		return result, nil
	}
	return applyPagination(result, filter.Limit, filter.Offset), nil
}

func (s *Store) CountCheckLogs(_ context.Context, filter *checklog.QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.checkLogs {
		if filter.Matches(e) {
			n++
		}
	}
	return n, nil
}

func (s *Store) PurgeCheckLogs(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for k, e := range s.checkLogs {
		if e.CreatedAt.Before(before) {
			delete(s.checkLogs, k)
			count++
		}
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func copyUser(u *user.User) *user.User {
	c := *u
	return &c
}

func copyCheckLog(e *checklog.Entry) *checklog.Entry {
	c := *e
	return &c
}

func applyPagination[T any](items []*T, limit, offset int) []*T {
	if offset > 0 && offset < len(items) {
		items = items[offset:]
	} else if offset >= len(items) && offset > 0 {
		return nil
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
