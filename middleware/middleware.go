// Package middleware provides Forge authorization middleware for keeper
// lists.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/keeper"
	"github.com/xraph/keeper/access"
	"github.com/xraph/keeper/auth"
	"github.com/xraph/keeper/id"
)

// Session resolves the bearer token or session cookie of the request and
// attaches the token and its subject to the request context. Requests
// without a valid token continue anonymously.
func Session(eng *keeper.Engine) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			if keeper.SubjectFrom(ctx.Context()) != nil {
				return next(ctx)
			}
			token := auth.TokenFromRequest(ctx.Request())
			if token == "" {
				return next(ctx)
			}
			subject, err := eng.Authenticate(ctx.Context(), token)
			if err != nil {
				eng.Logger().Warn("keeper: resolve session failed", "error", err)
				return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"error": "session lookup failed"})
			}
			c := auth.WithToken(ctx.Context(), token)
			ctx.WithContext(keeper.WithSubject(c, subject))
			return next(ctx)
		}
	}
}

// RequireList rejects the request with 403 when the list rule denies op
// outright for the request subject. AllowIf decisions pass through; the
// engine applies the filter when the handler touches records.
func RequireList(eng *keeper.Engine, list string, op access.Operation) forge.Middleware {
	return requireList(eng, op, func(forge.Context) string { return list })
}

// RequirePathList is RequireList for routes naming the list in the path
// parameter param.
func RequirePathList(eng *keeper.Engine, param string, op access.Operation) forge.Middleware {
	return requireList(eng, op, func(ctx forge.Context) string { return ctx.Param(param) })
}

func requireList(eng *keeper.Engine, op access.Operation, list func(forge.Context) string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			d, err := eng.Decide(Subject(eng, ctx), op, list(ctx))
			if errors.Is(err, keeper.ErrListNotFound) {
				// The handler reports unknown lists as 404.
				return next(ctx)
			}
			if err != nil || d.IsDeny() {
				return denyResponse(ctx)
			}
			return next(ctx)
		}
	}
}

// RequireAdmin rejects every request whose subject is not an administrator.
func RequireAdmin(eng *keeper.Engine) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			if !access.IsAdministrator(Subject(eng, ctx)) {
				return denyResponse(ctx)
			}
			return next(ctx)
		}
	}
}

// Subject resolves the acting subject of a request.
// Priority: session subject (Session or auth.Middleware) → Forge user ID → anonymous.
func Subject(eng *keeper.Engine, ctx forge.Context) *access.Subject {
	if s := keeper.SubjectFrom(ctx.Context()); s != nil {
		return s
	}
	userID := forge.UserIDFromContext(ctx.Context())
	if userID == "" {
		return nil
	}
	uid, err := id.ParseUserID(userID)
	if err != nil {
		return &access.Subject{ID: userID}
	}
	u, err := eng.Store().GetUser(ctx.Context(), uid)
	if err != nil {
		return &access.Subject{ID: userID}
	}
	return u.Subject()
}

// Context returns the request context carrying the resolved subject.
func Context(eng *keeper.Engine, ctx forge.Context) context.Context {
	return keeper.WithSubject(ctx.Context(), Subject(eng, ctx))
}

func denyResponse(ctx forge.Context) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(http.StatusForbidden)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": "access denied"})
}
