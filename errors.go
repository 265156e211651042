package keeper

import (
	"errors"

	"github.com/xraph/keeper/access"
	"github.com/xraph/keeper/auth"
	"github.com/xraph/keeper/schema"
	"github.com/xraph/keeper/session"
)

var (
	// ErrAccessDenied is returned when an access check fails.
	ErrAccessDenied = errors.New("keeper: access denied")

	// ErrItemNotFound is returned when an item cannot be found or is
	// hidden from the subject by a read filter.
	ErrItemNotFound = errors.New("keeper: item not found")

	// ErrUserNotFound is returned when a user cannot be found or is hidden
	// from the subject.
	ErrUserNotFound = errors.New("keeper: user not found")

	// ErrCheckLogNotFound is returned when a check log entry cannot be found.
	ErrCheckLogNotFound = errors.New("keeper: check log not found")

	// ErrDuplicateEmail is returned when an email is already taken.
	ErrDuplicateEmail = errors.New("keeper: email already registered")

	// ErrInvalidField is returned when submitted values do not fit the list
	// schema.
	ErrInvalidField = errors.New("keeper: invalid field")

	// ErrInvalidReference is returned when a relationship names a record
	// that does not exist in the target list.
	ErrInvalidReference = errors.New("keeper: invalid reference")

	// ErrUserList is returned when User records are addressed through the
	// item operations.
	ErrUserList = errors.New("keeper: User records are managed through the user operations")

	// ErrSchema is returned when the list registry fails validation.
	ErrSchema = errors.New("keeper: invalid schema")
)

// Errors shared with the packages that detect them.
var (
	ErrListNotFound       = schema.ErrListNotFound
	ErrReadOnlyField      = schema.ErrReadOnlyField
	ErrUnknownOperation   = access.ErrUnknownOperation
	ErrInvalidCredentials = auth.ErrInvalidCredentials
	ErrSessionNotFound    = session.ErrNotFound
)
