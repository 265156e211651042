package keeper

import (
	"log/slog"

	"github.com/xraph/keeper/plugin"
	"github.com/xraph/keeper/schema"
	"github.com/xraph/keeper/session"
	"github.com/xraph/keeper/store"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(e *Engine) { e.store = s } }

// WithRegistry sets the list registry. The registry must already be
// validated. Defaults to the keeper lists.
func WithRegistry(r *schema.Registry) Option { return func(e *Engine) { e.registry = r } }

// WithSessions sets the session store. Defaults to an in-memory store.
func WithSessions(s session.Store) Option { return func(e *Engine) { e.sessions = s } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option { return func(e *Engine) { e.config = c } }

// WithPlugin registers a plugin with the engine.
func WithPlugin(x plugin.Plugin) Option {
	return func(e *Engine) {
		if e.plugins == nil {
			e.plugins = plugin.NewRegistry(e.logger)
		}
		e.plugins.Register(x)
	}
}
