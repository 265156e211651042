// Package plugin defines the plugin system for keeper.
// Plugins are notified of lifecycle events (check performed, item created,
// user signed in) and can react with logging, metrics or tracing.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/xraph/keeper/id"
	"github.com/xraph/keeper/item"
	"github.com/xraph/keeper/user"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Check lifecycle hooks
// ──────────────────────────────────────────────────

// BeforeCheck is called before an access check is evaluated.
// The req parameter is *keeper.CheckRequest (passed as any to avoid import cycle).
type BeforeCheck interface {
	OnBeforeCheck(ctx context.Context, req any) error
}

// AfterCheck is called after an access check completes.
// The req parameter is *keeper.CheckRequest; result is *keeper.CheckResult.
type AfterCheck interface {
	OnAfterCheck(ctx context.Context, req, result any) error
}

// ──────────────────────────────────────────────────
// Item lifecycle hooks
// ──────────────────────────────────────────────────

// ItemCreated is called after an item is created.
type ItemCreated interface {
	OnItemCreated(ctx context.Context, it *item.Item) error
}

// ItemUpdated is called after an item is updated.
type ItemUpdated interface {
	OnItemUpdated(ctx context.Context, it *item.Item) error
}

// ItemDeleted is called after an item is deleted.
type ItemDeleted interface {
	OnItemDeleted(ctx context.Context, list string, itemID id.ItemID) error
}

// ──────────────────────────────────────────────────
// User lifecycle hooks
// ──────────────────────────────────────────────────

// UserCreated is called after a user is created.
type UserCreated interface {
	OnUserCreated(ctx context.Context, u *user.User) error
}

// UserDeleted is called after a user is deleted.
type UserDeleted interface {
	OnUserDeleted(ctx context.Context, userID id.UserID) error
}

// SignedIn is called after a user authenticates with a password.
type SignedIn interface {
	OnSignedIn(ctx context.Context, u *user.User) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
