// Package access is the row-level access policy evaluator for keeper lists.
//
// Every check takes the Subject explicitly and returns a Decision: Allow,
// Deny, or AllowIf(filter) where the filter is an equality constraint the
// caller translates into a row filter (or applies to a single record).
//
//	d := access.IsAdministratorOrOwner(subject)
//	if d.Permits(shop) {
//	    // ...
//	}
//
// Evaluation is pure and holds no state, so it is safe for concurrent use
// and must not be cached across requests.
package access

import "fmt"

// Subject is the authenticated actor performing an operation.
// A nil *Subject means the request is anonymous.
type Subject struct {
	ID            string `json:"id"`
	Administrator bool   `json:"administrator"`
}

// Operation is the kind of operation requested on a list.
type Operation string

const (
	// OpCreate creates a record.
	OpCreate Operation = "create"

	// OpRead reads one or more records.
	OpRead Operation = "read"

	// OpUpdate modifies an existing record.
	OpUpdate Operation = "update"

	// OpDelete removes a record.
	OpDelete Operation = "delete"
)

// Operations lists every valid operation in table order.
var Operations = []Operation{OpCreate, OpRead, OpUpdate, OpDelete}

// ParseOperation converts a string into an Operation.
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(s); op {
	case OpCreate, OpRead, OpUpdate, OpDelete:
		return op, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOperation, s)
	}
}

// Valid reports whether op is one of create, read, update or delete.
func (op Operation) Valid() bool {
	_, err := ParseOperation(string(op))
	return err == nil
}
