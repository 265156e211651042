package extension

import (
	"errors"
	"fmt"
	"time"
)

// ErrConfigRequired is returned by Register when RequireConfig is set and
// the app config has no keeper section.
var ErrConfigRequired = errors.New("keeper: config section required")

// Config holds the Keeper extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.keeper" or "keeper" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for keeper routes.
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// GroveDriver selects the store built around a grove.DB found in the
	// DI container: "postgres", "sqlite" or "mongo". Empty disables the
	// lookup.
	GroveDriver string `json:"grove_driver" mapstructure:"grove_driver" yaml:"grove_driver"`

	// StrictCreate evaluates create on ownable lists against the new record.
	StrictCreate bool `json:"strict_create" mapstructure:"strict_create" yaml:"strict_create"`

	// GuardAdminFlag lets only administrators set isAdmin.
	GuardAdminFlag bool `json:"guard_admin_flag" mapstructure:"guard_admin_flag" yaml:"guard_admin_flag"`

	// AuditChecks records every access check in the check log.
	AuditChecks bool `json:"audit_checks" mapstructure:"audit_checks" yaml:"audit_checks"`

	// SessionTTL is the lifetime of a sign-in session.
	SessionTTL time.Duration `json:"session_ttl" mapstructure:"session_ttl" yaml:"session_ttl"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" mapstructure:"-" yaml:"-"`
}

// configKeys are the app config sections read by Register, in order.
var configKeys = []string{"extensions.keeper", "keeper"}

// configSource is the part of the Forge config manager Register reads.
type configSource interface {
	IsSet(key string) bool
	Bind(key string, target any) error
}

// loadConfig binds the first config section present in src over cfg.
// Fields absent from the section keep their values from cfg.
func loadConfig(src configSource, cfg Config) (Config, error) {
	if src != nil {
		for _, key := range configKeys {
			if !src.IsSet(key) {
				continue
			}
			out := cfg
			if err := src.Bind(key, &out); err != nil {
				return cfg, fmt.Errorf("keeper: bind config %q: %w", key, err)
			}
			out.RequireConfig = cfg.RequireConfig
			return out, nil
		}
	}
	if cfg.RequireConfig {
		return cfg, fmt.Errorf("%w: expected one of %v", ErrConfigRequired, configKeys)
	}
	return cfg, nil
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SessionTTL: 24 * time.Hour,
	}
}
