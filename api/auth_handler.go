package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/keeper"
	"github.com/xraph/keeper/auth"
)

func (a *API) registerAuthRoutes(router forge.Router) error {
	g := router.Group("/v1/auth", forge.WithGroupTags("auth"))

	if err := g.POST("/signin", a.signIn,
		forge.WithSummary("Sign in"),
		forge.WithDescription("Verifies email and password and starts a session."),
		forge.WithOperationID("signIn"),
		forge.WithRequestSchema(SignInRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Session", SessionResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/signout", a.signOut,
		forge.WithSummary("Sign out"),
		forge.WithDescription("Ends the request session or the given token."),
		forge.WithOperationID("signOut"),
		forge.WithRequestSchema(SignOutRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/me", a.me,
		forge.WithSummary("Current user"),
		forge.WithDescription("Returns the user of the request session, if any."),
		forge.WithOperationID("me"),
		forge.WithResponseSchema(http.StatusOK, "Current user", MeResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) signIn(ctx forge.Context, req *SignInRequest) (*SessionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	sess, u, err := a.eng.SignIn(ctx.Context(), req.Email, req.Password)
	if errors.Is(err, keeper.ErrInvalidCredentials) {
		return nil, unauthorized(ctx, err.Error())
	}
	if err != nil {
		return nil, mapError(err)
	}

	http.SetCookie(ctx.Response(), &http.Cookie{
		Name:     auth.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	resp := &SessionResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt.UTC().Format(time.RFC3339),
		User:      u,
	}
	return resp, nil
}

func (a *API) signOut(ctx forge.Context, req *SignOutRequest) (*struct{}, error) {
	token := req.Token
	if token == "" {
		token = auth.TokenFrom(ctx.Context())
	}
	if token == "" {
		token = auth.TokenFromRequest(ctx.Request())
	}
	if token == "" {
		return nil, forge.BadRequest("no session token")
	}

	if err := a.eng.SignOut(ctx.Context(), token); err != nil {
		return nil, mapError(err)
	}

	http.SetCookie(ctx.Response(), &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) me(ctx forge.Context, _ *MeRequest) (*MeResponse, error) {
	c := a.subjectCtx(ctx)
	subject := keeper.SubjectFrom(c)
	if subject == nil {
		return &MeResponse{Anonymous: true}, nil
	}

	u, err := a.eng.GetUser(c, subject.ID)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &MeResponse{User: u}
	return resp, nil
}
