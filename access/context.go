package access

import "context"

type contextKey struct{}

// WithSubject returns a context carrying s. A nil s marks the request as
// anonymous.
func WithSubject(ctx context.Context, s *Subject) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// SubjectFrom returns the subject stored in ctx, or nil when the request
// is anonymous.
func SubjectFrom(ctx context.Context) *Subject {
	s, _ := ctx.Value(contextKey{}).(*Subject)
	return s
}
