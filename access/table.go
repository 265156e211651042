package access

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownOperation is returned for an operation outside create,
	// read, update and delete.
	ErrUnknownOperation = errors.New("access: unknown operation")

	// ErrMissingRule is returned when a table slot has no rule.
	ErrMissingRule = errors.New("access: missing rule")
)

// Table assigns a rule to each operation on a list.
type Table struct {
	Create Rule
	Read   Rule
	Update Rule
	Delete Rule
}

// Rule returns the rule for op.
func (t Table) Rule(op Operation) (Rule, error) {
	var r Rule
	switch op {
	case OpCreate:
		r = t.Create
	case OpRead:
		r = t.Read
	case OpUpdate:
		r = t.Update
	case OpDelete:
		r = t.Delete
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	if r == nil {
		return nil, fmt.Errorf("%w for %s", ErrMissingRule, op)
	}
	return r, nil
}

// Validate checks that every operation has a rule.
func (t Table) Validate() error {
	for _, op := range Operations {
		if _, err := t.Rule(op); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate computes the decision for s performing op. An unknown op or a
// missing rule is a configuration error and is returned as such.
func (t Table) Evaluate(s *Subject, op Operation) (Decision, error) {
	r, err := t.Rule(op)
	if err != nil {
		return Deny, err
	}
	return r(s), nil
}

// UserTable is the access table of the User list: anyone may sign up,
// users read and update themselves, and only administrators delete.
func UserTable() Table {
	return Table{
		Create: Always(Allow),
		Read:   CanAccessUserRecord,
		Update: CanAccessUserRecord,
		Delete: Require(IsAdministrator),
	}
}

// OwnableTable is the access table of lists whose records carry an owner.
// Create is unconditional for every subject, anonymous included.
func OwnableTable() Table {
	return Table{
		Create: Always(Allow),
		Read:   IsAdministratorOrOwner,
		Update: IsAdministratorOrOwner,
		Delete: IsAdministratorOrOwner,
	}
}

// StrictOwnableTable is OwnableTable with create evaluated through
// IsAdministratorOrOwner, so the filter applies to the record being
// created.
func StrictOwnableTable() Table {
	t := OwnableTable()
	t.Create = IsAdministratorOrOwner
	return t
}
