package api

import (
	"github.com/xraph/keeper/access"
	"github.com/xraph/keeper/schema"
	"github.com/xraph/keeper/user"
)

// CheckResponse is the response for an access check.
type CheckResponse struct {
	Allowed    bool           `json:"allowed" description:"Whether the request is allowed"`
	Decision   string         `json:"decision" description:"Decision kind (allow, deny, allow_if)"`
	Filter     *access.Filter `json:"filter,omitempty" description:"Row filter of an allow_if decision"`
	Reason     string         `json:"reason,omitempty" description:"Human-readable reason"`
	EvalTimeNs int64          `json:"eval_time_ns" description:"Evaluation time in nanoseconds"`
}

// BatchCheckResponse contains results for multiple checks.
type BatchCheckResponse struct {
	Results []CheckResponse `json:"results" description:"Check results in order"`
}

// SessionResponse is returned after signing in.
type SessionResponse struct {
	Token     string     `json:"token" description:"Session token"`
	ExpiresAt string     `json:"expires_at" description:"Session expiry (RFC3339)"`
	User      *user.User `json:"user" description:"Signed-in user"`
}

// MeResponse describes the request subject.
type MeResponse struct {
	Anonymous bool       `json:"anonymous" description:"Whether the request carries no session"`
	User      *user.User `json:"user,omitempty" description:"Signed-in user"`
}

// ListSchemaResponse describes one list and what the request subject may
// do with it.
type ListSchemaResponse struct {
	*schema.List
	Access map[access.Operation]CheckResponse `json:"access" description:"Decision per operation for the request subject"`
}

// ListSchemasResponse is written as the bare array of its lists.
type ListSchemasResponse struct {
	Lists []ListSchemaResponse `json:"lists" body:""`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}

// PurgeResponse reports how many entries a purge removed.
type PurgeResponse struct {
	Removed int64 `json:"removed"`
}
