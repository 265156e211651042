package user

import (
	"context"

	"github.com/xraph/keeper/id"
)

// Store defines persistence operations for users.
type Store interface {
	// CreateUser persists a new user. Emails are unique.
	CreateUser(ctx context.Context, u *User) error

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, userID id.UserID) (*User, error)

	// GetUserByEmail retrieves a user by normalized email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// UpdateUser persists changes to a user.
	UpdateUser(ctx context.Context, u *User) error

	// DeleteUser removes a user by ID.
	DeleteUser(ctx context.Context, userID id.UserID) error

	// ListUsers returns users matching the filter, oldest first.
	ListUsers(ctx context.Context, filter *ListFilter) ([]*User, error)

	// CountUsers returns the number of users matching the filter.
	CountUsers(ctx context.Context, filter *ListFilter) (int64, error)
}
