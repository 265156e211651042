// Package keeper serves the lists of a shop and channel matching backend
// (users, shops and channels with their items, and the matches linking
// them) behind row-level access policies.
//
// Every list carries an access table assigning a rule to create, read,
// update and delete. A rule evaluates the acting subject into Allow, Deny,
// or AllowIf(filter); the engine pushes filters down to the store as row
// constraints on reads and applies them to the target record on writes.
//
//	eng, err := keeper.NewEngine(
//	    keeper.WithStore(memStore),
//	)
//	ctx = keeper.WithSubject(ctx, &access.Subject{ID: "usr_01h..."})
//	shops, err := eng.ListItems(ctx, &keeper.ItemQuery{List: lists.Shop})
package keeper

import "github.com/xraph/keeper/access"

// CheckRequest is the input to an access check.
type CheckRequest struct {
	// Subject is the acting user; nil checks as anonymous.
	Subject   *access.Subject  `json:"subject,omitempty"`
	Operation access.Operation `json:"operation"`
	List      string           `json:"list"`

	// ResourceID names a stored record to apply the decision to. It is
	// loaded when Resource is nil.
	ResourceID string `json:"resource_id,omitempty"`

	// Resource is the record to apply the decision to. Without one the
	// check answers at list level.
	Resource access.Record `json:"-"`
}

// CheckResult is the outcome of an access check.
type CheckResult struct {
	// Allowed is the reduced outcome. At list level it reports whether any
	// record may be touched; against a resource, whether that resource may.
	Allowed bool `json:"allowed"`

	// Decision is the unreduced decision of the list rule.
	Decision access.Decision `json:"-"`

	Kind       access.Kind    `json:"decision"`
	Filter     *access.Filter `json:"filter,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	EvalTimeNs int64          `json:"eval_time_ns"`
}
