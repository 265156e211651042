package keeper

// Config holds configuration for the keeper engine.
type Config struct {
	// StrictCreate evaluates create on ownable lists through
	// IsAdministratorOrOwner and applies the resulting filter to the record
	// being created. Off by default, which allows create unconditionally.
	StrictCreate bool `json:"strict_create,omitempty"`

	// GuardAdminFlag lets only administrators set or change isAdmin on a
	// User record. Off by default.
	GuardAdminFlag bool `json:"guard_admin_flag,omitempty"`

	// AuditChecks records every access check in the check log.
	AuditChecks bool `json:"audit_checks,omitempty"`

	// DefaultPageSize caps list results when the caller gives no limit.
	// Defaults to 100.
	DefaultPageSize int `json:"default_page_size,omitempty"`

	// MaxPageSize is the largest limit a caller may request.
	// Defaults to 1000.
	MaxPageSize int `json:"max_page_size,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultPageSize: 100,
		MaxPageSize:     1000,
	}
}

// PageSize resolves a requested limit against the configured page sizes.
func (c Config) PageSize(limit int) int {
	if limit <= 0 {
		limit = c.DefaultPageSize
	}
	if c.MaxPageSize > 0 && limit > c.MaxPageSize {
		limit = c.MaxPageSize
	}
	return limit
}
