// Package user defines the User entity backing authentication and its
// store interface.
package user

import (
	"strings"
	"time"

	"github.com/xraph/keeper/access"
	"github.com/xraph/keeper/id"
)

// User is a member of the User list. PasswordHash never leaves the
// process through JSON.
type User struct {
	ID           id.UserID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email,omitempty" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsAdmin      bool      `json:"isAdmin" db:"is_admin"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// AccessField exposes the user's identity to policy filters. Users carry
// no owner.
func (u *User) AccessField(f access.Field) (string, bool) {
	if f == access.FieldID && !u.ID.IsNil() {
		return u.ID.String(), true
	}
	return "", false
}

// Subject returns the access subject the user acts as.
func (u *User) Subject() *access.Subject {
	return &access.Subject{ID: u.ID.String(), Administrator: u.IsAdmin}
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ListFilter contains filters for listing users.
type ListFilter struct {
	// Where holds equality constraints that must all match.
	Where []access.Filter `json:"where,omitempty"`

	// Search matches name or email, case-insensitively.
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Matches reports whether u satisfies the filter.
func (f *ListFilter) Matches(u *User) bool {
	if f == nil {
		return true
	}
	for _, w := range f.Where {
		if !w.Matches(u) {
			return false
		}
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(u.Name), q) && !strings.Contains(u.Email, q) {
			return false
		}
	}
	return true
}
