package plugin

import (
	"context"
	"log/slog"

	"github.com/xraph/keeper/id"
	"github.com/xraph/keeper/item"
	"github.com/xraph/keeper/user"
)

// Named entry types pair a hook with the plugin name for logging.

type beforeCheckEntry struct {
	name string
	hook BeforeCheck
}
type afterCheckEntry struct {
	name string
	hook AfterCheck
}
type itemCreatedEntry struct {
	name string
	hook ItemCreated
}
type itemUpdatedEntry struct {
	name string
	hook ItemUpdated
}
type itemDeletedEntry struct {
	name string
	hook ItemDeleted
}
type userCreatedEntry struct {
	name string
	hook UserCreated
}
type userDeletedEntry struct {
	name string
	hook UserDeleted
}
type signedInEntry struct {
	name string
	hook SignedIn
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	beforeCheck []beforeCheckEntry
	afterCheck  []afterCheckEntry
	itemCreated []itemCreatedEntry
	itemUpdated []itemUpdatedEntry
	itemDeleted []itemDeletedEntry
	userCreated []userCreatedEntry
	userDeleted []userDeletedEntry
	signedIn    []signedInEntry
	shutdown    []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(BeforeCheck); ok {
		r.beforeCheck = append(r.beforeCheck, beforeCheckEntry{name, h})
	}
	if h, ok := p.(AfterCheck); ok {
		r.afterCheck = append(r.afterCheck, afterCheckEntry{name, h})
	}
	if h, ok := p.(ItemCreated); ok {
		r.itemCreated = append(r.itemCreated, itemCreatedEntry{name, h})
	}
	if h, ok := p.(ItemUpdated); ok {
		r.itemUpdated = append(r.itemUpdated, itemUpdatedEntry{name, h})
	}
	if h, ok := p.(ItemDeleted); ok {
		r.itemDeleted = append(r.itemDeleted, itemDeletedEntry{name, h})
	}
	if h, ok := p.(UserCreated); ok {
		r.userCreated = append(r.userCreated, userCreatedEntry{name, h})
	}
	if h, ok := p.(UserDeleted); ok {
		r.userDeleted = append(r.userDeleted, userDeletedEntry{name, h})
	}
	if h, ok := p.(SignedIn); ok {
		r.signedIn = append(r.signedIn, signedInEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// ──────────────────────────────────────────────────
// Check event emitters
// ──────────────────────────────────────────────────

// EmitBeforeCheck notifies all plugins that implement BeforeCheck.
func (r *Registry) EmitBeforeCheck(ctx context.Context, req any) {
	for _, e := range r.beforeCheck {
		if err := e.hook.OnBeforeCheck(ctx, req); err != nil {
			r.logHookError("OnBeforeCheck", e.name, err)
		}
	}
}

// EmitAfterCheck notifies all plugins that implement AfterCheck.
func (r *Registry) EmitAfterCheck(ctx context.Context, req, result any) {
	for _, e := range r.afterCheck {
		if err := e.hook.OnAfterCheck(ctx, req, result); err != nil {
			r.logHookError("OnAfterCheck", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Item event emitters
// ──────────────────────────────────────────────────

// EmitItemCreated notifies all plugins that implement ItemCreated.
func (r *Registry) EmitItemCreated(ctx context.Context, it *item.Item) {
	for _, e := range r.itemCreated {
		if err := e.hook.OnItemCreated(ctx, it); err != nil {
			r.logHookError("OnItemCreated", e.name, err)
		}
	}
}

// EmitItemUpdated notifies all plugins that implement ItemUpdated.
func (r *Registry) EmitItemUpdated(ctx context.Context, it *item.Item) {
	for _, e := range r.itemUpdated {
		if err := e.hook.OnItemUpdated(ctx, it); err != nil {
			r.logHookError("OnItemUpdated", e.name, err)
		}
	}
}

// EmitItemDeleted notifies all plugins that implement ItemDeleted.
func (r *Registry) EmitItemDeleted(ctx context.Context, list string, itemID id.ItemID) {
	for _, e := range r.itemDeleted {
		if err := e.hook.OnItemDeleted(ctx, list, itemID); err != nil {
			r.logHookError("OnItemDeleted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// User event emitters
// ──────────────────────────────────────────────────

// EmitUserCreated notifies all plugins that implement UserCreated.
func (r *Registry) EmitUserCreated(ctx context.Context, u *user.User) {
	for _, e := range r.userCreated {
		if err := e.hook.OnUserCreated(ctx, u); err != nil {
			r.logHookError("OnUserCreated", e.name, err)
		}
	}
}

// EmitUserDeleted notifies all plugins that implement UserDeleted.
func (r *Registry) EmitUserDeleted(ctx context.Context, userID id.UserID) {
	for _, e := range r.userDeleted {
		if err := e.hook.OnUserDeleted(ctx, userID); err != nil {
			r.logHookError("OnUserDeleted", e.name, err)
		}
	}
}

// EmitSignedIn notifies all plugins that implement SignedIn.
func (r *Registry) EmitSignedIn(ctx context.Context, u *user.User) {
	for _, e := range r.signedIn {
		if err := e.hook.OnSignedIn(ctx, u); err != nil {
			r.logHookError("OnSignedIn", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Shutdown emitter
// ──────────────────────────────────────────────────

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Hook errors are never propagated to the caller.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
