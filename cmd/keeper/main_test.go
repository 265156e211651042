package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/xraph/keeper/store/memory"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"defaults", nil, false},
		{"postgres with url", map[string]string{"KEEPER_DATABASE_DRIVER": "postgres", "KEEPER_DATABASE_URL": "postgres://localhost/keeper"}, false},
		{"postgres without url", map[string]string{"KEEPER_DATABASE_DRIVER": "postgres"}, true},
		{"unknown driver", map[string]string{"KEEPER_DATABASE_DRIVER": "oracle", "KEEPER_DATABASE_URL": "x"}, true},
		{"admin without password", map[string]string{"KEEPER_ADMIN_EMAIL": "root@example.com"}, true},
		{"zero session ttl", map[string]string{"KEEPER_SESSION_TTL": "0s"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := loadConfig()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got config %+v", cfg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.env == nil && cfg.DatabaseDriver != driverMemory {
				t.Fatalf("expected memory driver by default, got %q", cfg.DatabaseDriver)
			}
		})
	}
}

func TestOpenStoreMemory(t *testing.T) {
	s, err := openStore(context.Background(), config{DatabaseDriver: driverMemory})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", s)
	}
}

func TestOpenDatabaseUnknownDriver(t *testing.T) {
	if _, err := openDatabase(context.Background(), "oracle", "x"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	s := memory.New()
	cfg := config{AdminEmail: "root@example.com", AdminPassword: "secret"}
	for i := range 2 {
		if err := seedAdmin(context.Background(), s, cfg, slog.Default()); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	n, err := s.CountUsers(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected one administrator, got %d users", n)
	}
}
