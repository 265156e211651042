// Package store defines the aggregate persistence interface. Each entity
// package (item, user, checklog) defines its own store interface and the
// composite Store composes them. Backends: Memory, SQLite, Postgres and
// MongoDB.
package store

import (
	"context"
	"errors"

	"github.com/xraph/keeper/access"
	"github.com/xraph/keeper/checklog"
	"github.com/xraph/keeper/item"
	"github.com/xraph/keeper/user"
)

var (
	// ErrNotFound is wrapped by backends when an entity does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate is wrapped by backends when a unique constraint fails.
	ErrDuplicate = errors.New("store: duplicate")
)

// Store is the aggregate persistence interface.
// A single backend implements every entity store.
type Store interface {
	item.Store
	user.Store
	checklog.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}

// WhereColumn maps a filter field to the column holding it in the SQL
// backends. Fields without a column match no row.
func WhereColumn(f access.Field) (string, bool) {
	switch f {
	case access.FieldID:
		return "id", true
	case access.FieldOwner:
		return "owner_id", true
	}
	return "", false
}
