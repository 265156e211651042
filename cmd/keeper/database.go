package main

import (
	"context"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/drivers/sqlitedriver"

	keeperext "github.com/xraph/keeper/extension"
	"github.com/xraph/keeper/store"
	"github.com/xraph/keeper/store/memory"
)

// driverMemory keeps every record in process memory.
const driverMemory = "memory"

// openStore builds the store selected by cfg and brings its schema up to
// date. Migrations are idempotent, so existing data is kept across restarts.
func openStore(ctx context.Context, cfg config) (store.Store, error) {
	if cfg.DatabaseDriver == driverMemory {
		return memory.New(), nil
	}
	db, err := openDatabase(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	s, err := keeperext.StoreFor(db, cfg.DatabaseDriver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate %s: %w", cfg.DatabaseDriver, err)
	}
	return s, nil
}

// openDatabase connects the grove driver named by driver to url.
func openDatabase(ctx context.Context, driver, url string) (*grove.DB, error) {
	var drv grove.GroveDriver
	switch driver {
	case "postgres":
		pg := pgdriver.New()
		if err := pg.Open(ctx, url); err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		drv = pg
	case "sqlite":
		sq := sqlitedriver.New()
		if err := sq.Open(ctx, url); err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		drv = sq
	case "mongo":
		mdb := mongodriver.New()
		if err := mdb.Open(ctx, url); err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		drv = mdb
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
	return grove.Open(drv)
}
