package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/keeper"
	"github.com/xraph/keeper/access"
	"github.com/xraph/keeper/schema"
)

func (a *API) registerSchemaRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("schema"))

	if err := g.GET("/schema", a.listSchema,
		forge.WithSummary("List schema"),
		forge.WithDescription("Returns every list with its fields and the decisions of the request subject."),
		forge.WithOperationID("listSchema"),
		forge.WithResponseSchema(http.StatusOK, "Lists", []ListSchemaResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/schema/:list", a.getListSchema,
		forge.WithSummary("Get list schema"),
		forge.WithDescription("Returns one list with its fields and the decisions of the request subject."),
		forge.WithOperationID("getListSchema"),
		forge.WithResponseSchema(http.StatusOK, "List", ListSchemaResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listSchema(ctx forge.Context, _ *ListSchemaRequest) (*ListSchemasResponse, error) {
	subject := keeper.SubjectFrom(a.subjectCtx(ctx))
	lists := a.eng.Registry().Lists()
	resp := make([]ListSchemaResponse, 0, len(lists))
	for _, l := range lists {
		ls, err := a.describeList(subject, l)
		if err != nil {
			return nil, mapError(err)
		}
		resp = append(resp, ls)
	}
	return &ListSchemasResponse{Lists: resp}, nil
}

func (a *API) getListSchema(ctx forge.Context, _ *GetListRequest) (*ListSchemaResponse, error) {
	l, err := a.eng.Registry().Get(ctx.Param("list"))
	if err != nil {
		return nil, mapError(err)
	}
	ls, err := a.describeList(keeper.SubjectFrom(a.subjectCtx(ctx)), l)
	if err != nil {
		return nil, mapError(err)
	}
	return &ls, nil
}

// describeList evaluates every operation of l for subject without
// recording checks.
func (a *API) describeList(subject *access.Subject, l *schema.List) (ListSchemaResponse, error) {
	out := ListSchemaResponse{List: l, Access: make(map[access.Operation]CheckResponse, len(access.Operations))}
	for _, op := range access.Operations {
		d, err := a.eng.Decide(subject, op, l.Name)
		if err != nil {
			return ListSchemaResponse{}, err
		}
		cr := CheckResponse{Allowed: !d.IsDeny(), Decision: string(d.Kind())}
		if f, ok := d.Filter(); ok {
			cr.Filter = &f
		}
		out.Access[op] = cr
	}
	return out, nil
}
