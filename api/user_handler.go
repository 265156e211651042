package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/keeper"
	"github.com/xraph/keeper/access"
	"github.com/xraph/keeper/middleware"
	"github.com/xraph/keeper/schema"
	"github.com/xraph/keeper/user"
)

func (a *API) registerUserRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("users"))

	if err := g.POST("/users", a.createUser,
		forge.WithSummary("Create user"),
		forge.WithDescription("Registers a user. Open to anonymous requests."),
		forge.WithOperationID("createUser"),
		forge.WithRequestSchema(CreateUserRequest{}),
		forge.WithCreatedResponse(&user.User{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/users", a.listUsers,
		forge.WithSummary("List users"),
		forge.WithDescription("Lists the users visible to the request subject."),
		forge.WithOperationID("listUsers"),
		forge.WithMiddleware(middleware.RequireList(a.eng, schema.UserList, access.OpRead)),
		forge.WithRequestSchema(ListUsersRequest{}),
		forge.WithResponseSchema(http.StatusOK, "User list", ListResponse[*user.User]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/users/:userId", a.getUser,
		forge.WithSummary("Get user"),
		forge.WithDescription("Returns a user visible to the request subject."),
		forge.WithOperationID("getUser"),
		forge.WithMiddleware(middleware.RequireList(a.eng, schema.UserList, access.OpRead)),
		forge.WithResponseSchema(http.StatusOK, "User details", &user.User{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/users/:userId", a.updateUser,
		forge.WithSummary("Update user"),
		forge.WithDescription("Updates the given fields of a user."),
		forge.WithOperationID("updateUser"),
		forge.WithMiddleware(middleware.RequireList(a.eng, schema.UserList, access.OpUpdate)),
		forge.WithRequestSchema(UpdateUserRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated user", &user.User{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/users/:userId", a.deleteUser,
		forge.WithSummary("Delete user"),
		forge.WithDescription("Deletes a user and ends their sessions."),
		forge.WithOperationID("deleteUser"),
		forge.WithMiddleware(middleware.RequireList(a.eng, schema.UserList, access.OpDelete)),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) createUser(ctx forge.Context, req *CreateUserRequest) (*user.User, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	in := &keeper.UserInput{Password: &req.Password}
	if req.Name != "" {
		in.Name = &req.Name
	}
	if req.Email != "" {
		in.Email = &req.Email
	}
	if req.IsAdmin {
		in.IsAdmin = &req.IsAdmin
	}

	u, err := a.eng.CreateUser(a.subjectCtx(ctx), in)
	if err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.JSON(http.StatusCreated, u)
}

func (a *API) getUser(ctx forge.Context, _ *GetUserRequest) (*user.User, error) {
	u, err := a.eng.GetUser(a.subjectCtx(ctx), ctx.Param("userId"))
	if err != nil {
		return nil, mapError(err)
	}

	return u, nil
}

func (a *API) updateUser(ctx forge.Context, req *UpdateUserRequest) (*user.User, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	u, err := a.eng.UpdateUser(a.subjectCtx(ctx), ctx.Param("userId"), &keeper.UserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return u, nil
}

func (a *API) deleteUser(ctx forge.Context, _ *GetUserRequest) (*struct{}, error) {
	if err := a.eng.DeleteUser(a.subjectCtx(ctx), ctx.Param("userId")); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listUsers(ctx forge.Context, req *ListUsersRequest) (*ListResponse[*user.User], error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	c := a.subjectCtx(ctx)
	q := &keeper.UserQuery{
		Search: req.Search,
		Limit:  a.eng.Config().PageSize(req.Limit),
		Offset: req.Offset,
	}

	users, err := a.eng.ListUsers(c, q)
	if err != nil {
		return nil, mapError(err)
	}
	total, err := a.eng.CountUsers(c, q)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*user.User]{Items: users, Total: total, Limit: q.Limit, Offset: q.Offset}
	return resp, nil
}
