package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the keeper store (PostgreSQL).
var Migrations = migrate.NewGroup("keeper")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_users",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS keeper_users (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL DEFAULT '',
    email           TEXT,
    password_hash   TEXT NOT NULL,
    is_admin        BOOLEAN NOT NULL DEFAULT FALSE,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_keeper_users_email ON keeper_users (email);
CREATE INDEX IF NOT EXISTS idx_keeper_users_created ON keeper_users (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS keeper_users CASCADE`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_items",
			Version: "20260101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS keeper_items (
    id              TEXT PRIMARY KEY,
    list            TEXT NOT NULL,
    owner_id        TEXT NOT NULL DEFAULT '',
    label           TEXT NOT NULL DEFAULT '',
    fields          JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_keeper_items_list ON keeper_items (list, created_at);
CREATE INDEX IF NOT EXISTS idx_keeper_items_owner ON keeper_items (list, owner_id);
CREATE INDEX IF NOT EXISTS idx_keeper_items_fields ON keeper_items USING GIN (fields);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS keeper_items CASCADE`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_check_logs",
			Version: "20260101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS keeper_check_logs (
    id              TEXT PRIMARY KEY,
    subject_id      TEXT NOT NULL DEFAULT '',
    anonymous       BOOLEAN NOT NULL DEFAULT FALSE,
    operation       TEXT NOT NULL,
    list            TEXT NOT NULL,
    resource_id     TEXT NOT NULL DEFAULT '',
    decision        TEXT NOT NULL,
    filter          TEXT NOT NULL DEFAULT '',
    reason          TEXT NOT NULL DEFAULT '',
    eval_time_ns    BIGINT NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_keeper_clogs_subject ON keeper_check_logs (subject_id);
CREATE INDEX IF NOT EXISTS idx_keeper_clogs_list ON keeper_check_logs (list, operation);
CREATE INDEX IF NOT EXISTS idx_keeper_clogs_decision ON keeper_check_logs (decision);
CREATE INDEX IF NOT EXISTS idx_keeper_clogs_created ON keeper_check_logs (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS keeper_check_logs CASCADE`)
				return err
			},
		},
	)
}
