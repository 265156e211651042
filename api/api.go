// Package api provides HTTP handlers for the keeper engine.
package api

import (
	"context"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/keeper"
	"github.com/xraph/keeper/auth"
	"github.com/xraph/keeper/middleware"
)

// API wires all keeper HTTP handlers together.
type API struct {
	eng    *keeper.Engine
	router forge.Router

	// mounted is set once the routes are registered on router.
	mounted bool
}

// New creates an API from an Engine and a Forge router.
func New(eng *keeper.Engine, router forge.Router) *API {
	return &API{eng: eng, router: router}
}

// Handler returns the fully assembled http.Handler with all routes. The
// session middleware runs in front of the router so that handlers see the
// subject of the request token.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	if !a.mounted {
		if err := a.RegisterRoutes(a.router); err != nil {
			panic("keeper: register routes: " + err.Error())
		}
	}
	return auth.Middleware(a.eng.Auth(), nil)(a.router.Handler())
}

// RegisterRoutes registers all API routes into the given Forge router.
// The routes sit in a group running middleware.Session, so requests see
// the subject of their session token on any router.
func (a *API) RegisterRoutes(router forge.Router) error {
	root := router.Group("")
	root.Use(middleware.Session(a.eng))

	registerers := []func(forge.Router) error{
		a.registerAuthRoutes,
		a.registerSchemaRoutes,
		a.registerCheckRoutes,
		a.registerItemRoutes,
		a.registerUserRoutes,
		a.registerCheckLogRoutes,
	}
	for _, fn := range registerers {
		if err := fn(root); err != nil {
			return err
		}
	}
	if router == a.router {
		a.mounted = true
	}
	return nil
}

// subjectCtx returns the request context carrying the acting subject.
func (a *API) subjectCtx(ctx forge.Context) context.Context {
	return middleware.Context(a.eng, ctx)
}
