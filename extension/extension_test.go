package extension

import (
	"errors"
	"testing"
	"time"

	"github.com/xraph/keeper/store/memory"
)

// fakeConfig serves one config section.
type fakeConfig struct {
	key string
	cfg Config
	err error
}

func (f fakeConfig) IsSet(key string) bool { return key == f.key }

func (f fakeConfig) Bind(key string, target any) error {
	if f.err != nil {
		return f.err
	}
	c := target.(*Config)
	c.BasePath = f.cfg.BasePath
	c.AuditChecks = f.cfg.AuditChecks
	c.RequireConfig = f.cfg.RequireConfig
	return nil
}

func TestLoadConfig(t *testing.T) {
	base := DefaultConfig()
	required := base
	required.RequireConfig = true
	boom := errors.New("boom")

	tests := []struct {
		name    string
		src     configSource
		cfg     Config
		wantErr error
		check   func(t *testing.T, got Config)
	}{
		{"no source", nil, base, nil, func(t *testing.T, got Config) {
			if got.SessionTTL != 24*time.Hour {
				t.Fatalf("expected defaults kept, got %+v", got)
			}
		}},
		{"no source required", nil, required, ErrConfigRequired, nil},
		{"missing section required", fakeConfig{key: "other"}, required, ErrConfigRequired, nil},
		{"extensions section", fakeConfig{key: "extensions.keeper", cfg: Config{BasePath: "/authz", AuditChecks: true}}, base, nil, func(t *testing.T, got Config) {
			if got.BasePath != "/authz" || !got.AuditChecks {
				t.Fatalf("expected section values, got %+v", got)
			}
			if got.SessionTTL != 24*time.Hour {
				t.Fatalf("expected unset fields kept, got %v", got.SessionTTL)
			}
		}},
		{"legacy section satisfies required", fakeConfig{key: "keeper", cfg: Config{BasePath: "/k"}}, required, nil, func(t *testing.T, got Config) {
			if got.BasePath != "/k" || !got.RequireConfig {
				t.Fatalf("unexpected config %+v", got)
			}
		}},
		{"bind error", fakeConfig{key: "keeper", err: boom}, base, boom, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loadConfig(tt.src, tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, got)
		})
	}
}

func TestWithRequireConfig(t *testing.T) {
	if e := New(WithRequireConfig()); !e.config.RequireConfig {
		t.Fatal("expected RequireConfig")
	}
}

func TestStoreForUnknownDriver(t *testing.T) {
	_, err := StoreFor(nil, "oracle")
	if !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
}

func TestNewAppliesOptions(t *testing.T) {
	s := memory.New()
	e := New(
		WithStore(s),
		WithDisableRoutes(),
		WithDisableMigrate(),
	)
	if e.store != s {
		t.Error("expected store option to be kept")
	}
	if !e.config.DisableRoutes || !e.config.DisableMigrate {
		t.Errorf("expected routes and migrate disabled, got %+v", e.config)
	}
	if e.config.SessionTTL != 24*time.Hour {
		t.Errorf("expected default session TTL, got %v", e.config.SessionTTL)
	}
	if e.Name() != "keeper" {
		t.Errorf("Name() = %q", e.Name())
	}
}

func TestWithConfigReplacesDefaults(t *testing.T) {
	e := New(WithConfig(Config{AuditChecks: true}))
	if !e.config.AuditChecks {
		t.Error("expected AuditChecks")
	}
	if e.config.SessionTTL != 0 {
		t.Errorf("expected zero TTL from explicit config, got %v", e.config.SessionTTL)
	}
}
