// Package extension provides a Forge extension entry point for Keeper.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/keeper"
	"github.com/xraph/keeper/api"
	"github.com/xraph/keeper/plugin"
	"github.com/xraph/keeper/session"
	"github.com/xraph/keeper/store"
	"github.com/xraph/keeper/store/mongo"
	"github.com/xraph/keeper/store/postgres"
	"github.com/xraph/keeper/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "keeper"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Row-level access control for shop and channel matching lists"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// ErrUnknownDriver is returned when GroveDriver names no supported store.
var ErrUnknownDriver = errors.New("keeper: unknown grove driver")

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Keeper as a Forge extension.
type Extension struct {
	config     Config
	eng        *keeper.Engine
	apiHandler *api.API
	logger     *slog.Logger
	store      store.Store
	groveDB    *grove.DB
	keeperOpts []keeper.Option
	plugins    []plugin.Plugin
}

// New creates a Keeper Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Engine returns the underlying Keeper engine.
func (e *Extension) Engine() *keeper.Engine { return e.eng }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Register implements [forge.Extension]. It initializes the engine,
// registers it in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	var src configSource
	if cm := fapp.Config(); cm != nil {
		src = cm
	}
	cfg, err := loadConfig(src, e.config)
	if err != nil {
		return err
	}
	e.config = cfg

	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*keeper.Engine, error) {
		return e.eng, nil
	}); err != nil {
		return fmt.Errorf("keeper: register engine in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	s, err := e.resolveStore(fapp)
	if err != nil {
		return err
	}

	cfg := keeper.DefaultConfig()
	cfg.StrictCreate = e.config.StrictCreate
	cfg.GuardAdminFlag = e.config.GuardAdminFlag
	cfg.AuditChecks = e.config.AuditChecks

	var sessOpts []session.MemoryOption
	if e.config.SessionTTL > 0 {
		sessOpts = append(sessOpts, session.WithTTL(e.config.SessionTTL))
	}

	opts := make([]keeper.Option, 0, len(e.keeperOpts)+len(e.plugins)+4)
	opts = append(opts,
		keeper.WithLogger(logger),
		keeper.WithConfig(cfg),
		keeper.WithSessions(session.NewMemory(sessOpts...)),
	)
	if s != nil {
		opts = append(opts, keeper.WithStore(s))
	}

	// User-provided options may override anything above.
	opts = append(opts, e.keeperOpts...)

	for _, x := range e.plugins {
		opts = append(opts, keeper.WithPlugin(x))
	}

	eng, err := keeper.NewEngine(opts...)
	if err != nil {
		return fmt.Errorf("keeper: create engine: %w", err)
	}
	e.eng = eng

	router := fapp.Router()
	if e.config.BasePath != "" {
		router = router.Group(e.config.BasePath)
	}
	e.apiHandler = api.New(eng, router)

	if !e.config.DisableRoutes {
		if err := e.apiHandler.RegisterRoutes(router); err != nil {
			return fmt.Errorf("keeper: register routes: %w", err)
		}
	}

	return nil
}

// resolveStore picks the store in order: explicit option, a store.Store in
// the container, then a grove.DB (explicit or from the container) wrapped
// by the configured driver.
func (e *Extension) resolveStore(fapp forge.App) (store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		return s, nil
	}
	if e.config.GroveDriver == "" {
		return nil, nil
	}
	db := e.groveDB
	if db == nil {
		resolved, err := forge.Inject[*grove.DB](fapp.Container())
		if err != nil {
			return nil, fmt.Errorf("keeper: resolve grove database: %w", err)
		}
		db = resolved
	}
	return StoreFor(db, e.config.GroveDriver)
}

// StoreFor wraps db in the keeper store for driver: "postgres" (or "pg"),
// "sqlite", or "mongo" (or "mongodb").
func StoreFor(db *grove.DB, driver string) (store.Store, error) {
	switch driver {
	case "postgres", "pg":
		return postgres.New(db), nil
	case "sqlite":
		return sqlite.New(db), nil
	case "mongo", "mongodb":
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// Start begins the keeper engine and runs migrations if enabled.
func (e *Extension) Start(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("keeper: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if s := e.eng.Store(); s != nil {
			if err := s.Migrate(ctx); err != nil {
				return fmt.Errorf("keeper: migration failed: %w", err)
			}
		}
	}

	return e.eng.Start(ctx)
}

// Stop gracefully shuts down the keeper engine.
func (e *Extension) Stop(ctx context.Context) error {
	if e.eng == nil {
		return nil
	}
	return e.eng.Stop(ctx)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("keeper: extension not initialized")
	}
	s := e.eng.Store()
	if s == nil {
		return errors.New("keeper: no store configured")
	}
	return s.Ping(ctx)
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all keeper API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}
