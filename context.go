package keeper

import (
	"context"

	"github.com/xraph/keeper/access"
)

// WithSubject returns a context carrying the acting subject. Engine item
// and user operations read the subject from the context; a context
// without one acts anonymously.
// Use this for standalone mode (without Forge).
func WithSubject(ctx context.Context, s *access.Subject) context.Context {
	return access.WithSubject(ctx, s)
}

// SubjectFrom returns the subject carried by ctx, or nil.
func SubjectFrom(ctx context.Context) *access.Subject {
	return access.SubjectFrom(ctx)
}
