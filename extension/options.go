package extension

import (
	"log/slog"

	"github.com/xraph/grove"

	"github.com/xraph/keeper"
	"github.com/xraph/keeper/plugin"
	"github.com/xraph/keeper/store"
)

// ExtOption configures the Keeper Forge extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDatabase builds the store around db using the named driver
// ("postgres", "sqlite" or "mongo").
func WithGroveDatabase(db *grove.DB, driver string) ExtOption {
	return func(e *Extension) {
		e.groveDB = db
		e.config.GroveDriver = driver
	}
}

// WithConfig sets the extension configuration.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithEngineOptions adds engine-level options.
func WithEngineOptions(opts ...keeper.Option) ExtOption {
	return func(e *Extension) {
		e.keeperOpts = append(e.keeperOpts, opts...)
	}
}

// WithPlugin registers a lifecycle hook plugin.
func WithPlugin(x plugin.Plugin) ExtOption {
	return func(e *Extension) {
		e.plugins = append(e.plugins, x)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = l
	}
}

// WithDisableRoutes disables the registration of HTTP routes.
func WithDisableRoutes() ExtOption {
	return func(e *Extension) {
		e.config.DisableRoutes = true
	}
}

// WithDisableMigrate disables auto-migration on start.
func WithDisableMigrate() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}

// WithRequireConfig makes Register fail when the app config has no keeper
// section.
func WithRequireConfig() ExtOption {
	return func(e *Extension) {
		e.config.RequireConfig = true
	}
}
