// Command keeper runs the keeper API as a Forge application. The store is
// selected by KEEPER_DATABASE_DRIVER: memory (default), postgres, sqlite or
// mongo, connected through KEEPER_DATABASE_URL.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/xraph/forge"

	"github.com/xraph/keeper"
	"github.com/xraph/keeper/access"
	keeperext "github.com/xraph/keeper/extension"
	"github.com/xraph/keeper/store"
)

// config is read from KEEPER_* environment variables.
type config struct {
	DatabaseDriver string        `env:"KEEPER_DATABASE_DRIVER"  envDefault:"memory" validate:"oneof=memory postgres sqlite mongo"`
	DatabaseURL    string        `env:"KEEPER_DATABASE_URL"     validate:"required_unless=DatabaseDriver memory"`
	AdminEmail     string        `env:"KEEPER_ADMIN_EMAIL"      validate:"omitempty,email"`
	AdminPassword  string        `env:"KEEPER_ADMIN_PASSWORD"   validate:"required_with=AdminEmail"`
	BasePath       string        `env:"KEEPER_BASE_PATH"`
	StrictCreate   bool          `env:"KEEPER_STRICT_CREATE"`
	GuardAdminFlag bool          `env:"KEEPER_GUARD_ADMIN_FLAG"`
	AuditChecks    bool          `env:"KEEPER_AUDIT_CHECKS"     envDefault:"true"`
	SessionTTL     time.Duration `env:"KEEPER_SESSION_TTL"      envDefault:"24h" validate:"gt=0"`
	LogLevel       string        `env:"KEEPER_LOG_LEVEL"        envDefault:"info" validate:"oneof=debug info warn error"`
}

func loadConfig() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// seedAdmin creates the bootstrap administrator in s when one is
// configured.
func seedAdmin(ctx context.Context, s store.Store, cfg config, logger *slog.Logger) error {
	if cfg.AdminEmail == "" {
		return nil
	}
	eng, err := keeper.NewEngine(keeper.WithStore(s), keeper.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	ctx = keeper.WithSubject(ctx, &access.Subject{ID: "bootstrap", Administrator: true})
	name := "admin"
	admin := true
	u, err := eng.CreateUser(ctx, &keeper.UserInput{
		Name:     &name,
		Email:    &cfg.AdminEmail,
		Password: &cfg.AdminPassword,
		IsAdmin:  &admin,
	})
	if errors.Is(err, keeper.ErrDuplicateEmail) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	logger.Info("seeded administrator", "user_id", u.ID.String(), "email", u.Email)
	return nil
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}
	logger := newLogger(cfg.LogLevel)

	ctx := context.Background()
	s, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()
	logger.Info("store ready", "driver", cfg.DatabaseDriver)

	if err := seedAdmin(ctx, s, cfg, logger); err != nil {
		log.Fatal(err)
	}

	ext := keeperext.New(
		keeperext.WithStore(s),
		keeperext.WithLogger(logger),
		keeperext.WithConfig(keeperext.Config{
			BasePath:       cfg.BasePath,
			StrictCreate:   cfg.StrictCreate,
			GuardAdminFlag: cfg.GuardAdminFlag,
			AuditChecks:    cfg.AuditChecks,
			SessionTTL:     cfg.SessionTTL,
		}),
	)

	app := forge.New(
		forge.WithExtensions(ext),
	)

	if err := app.Start(ctx); err != nil {
		logger.Error("keeper stopped", "error", err)
		os.Exit(1)
	}
}
