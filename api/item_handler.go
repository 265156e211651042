package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/keeper"
	"github.com/xraph/keeper/access"
	"github.com/xraph/keeper/item"
	"github.com/xraph/keeper/middleware"
)

func (a *API) registerItemRoutes(router forge.Router) error {
	g := router.Group("/v1/lists", forge.WithGroupTags("items"))

	if err := g.POST("/:list/items", a.createItem,
		forge.WithSummary("Create item"),
		forge.WithDescription("Creates a record in the list."),
		forge.WithOperationID("createItem"),
		forge.WithMiddleware(middleware.RequirePathList(a.eng, "list", access.OpCreate)),
		forge.WithRequestSchema(WriteItemRequest{}),
		forge.WithCreatedResponse(&item.Item{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/:list/items", a.listItems,
		forge.WithSummary("List items"),
		forge.WithDescription("Lists the records of the list visible to the request subject."),
		forge.WithOperationID("listItems"),
		forge.WithMiddleware(middleware.RequirePathList(a.eng, "list", access.OpRead)),
		forge.WithRequestSchema(ListItemsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Item list", ListResponse[*item.Item]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/:list/items/:itemId", a.getItem,
		forge.WithSummary("Get item"),
		forge.WithDescription("Returns a record visible to the request subject."),
		forge.WithOperationID("getItem"),
		forge.WithMiddleware(middleware.RequirePathList(a.eng, "list", access.OpRead)),
		forge.WithResponseSchema(http.StatusOK, "Item details", &item.Item{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/:list/items/:itemId", a.updateItem,
		forge.WithSummary("Update item"),
		forge.WithDescription("Updates the given fields of a record. A null value clears a field."),
		forge.WithOperationID("updateItem"),
		forge.WithMiddleware(middleware.RequirePathList(a.eng, "list", access.OpUpdate)),
		forge.WithRequestSchema(WriteItemRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated item", &item.Item{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/:list/items/:itemId", a.deleteItem,
		forge.WithSummary("Delete item"),
		forge.WithDescription("Deletes a record and detaches it from the records referencing it."),
		forge.WithOperationID("deleteItem"),
		forge.WithMiddleware(middleware.RequirePathList(a.eng, "list", access.OpDelete)),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) createItem(ctx forge.Context, req *WriteItemRequest) (*item.Item, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	it, err := a.eng.CreateItem(a.subjectCtx(ctx), ctx.Param("list"), req.Fields)
	if err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.JSON(http.StatusCreated, it)
}

func (a *API) getItem(ctx forge.Context, _ *ItemPathRequest) (*item.Item, error) {
	it, err := a.eng.GetItem(a.subjectCtx(ctx), ctx.Param("list"), ctx.Param("itemId"))
	if err != nil {
		return nil, mapError(err)
	}

	return it, nil
}

func (a *API) updateItem(ctx forge.Context, req *WriteItemRequest) (*item.Item, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	it, err := a.eng.UpdateItem(a.subjectCtx(ctx), ctx.Param("list"), ctx.Param("itemId"), req.Fields)
	if err != nil {
		return nil, mapError(err)
	}

	return it, nil
}

func (a *API) deleteItem(ctx forge.Context, _ *ItemPathRequest) (*struct{}, error) {
	if err := a.eng.DeleteItem(a.subjectCtx(ctx), ctx.Param("list"), ctx.Param("itemId")); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listItems(ctx forge.Context, req *ListItemsRequest) (*ListResponse[*item.Item], error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	c := a.subjectCtx(ctx)
	q := &keeper.ItemQuery{
		List:   ctx.Param("list"),
		Search: req.Search,
		Limit:  a.eng.Config().PageSize(req.Limit),
		Offset: req.Offset,
	}

	items, err := a.eng.ListItems(c, q)
	if err != nil {
		return nil, mapError(err)
	}
	total, err := a.eng.CountItems(c, q)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*item.Item]{Items: items, Total: total, Limit: q.Limit, Offset: q.Offset}
	return resp, nil
}
