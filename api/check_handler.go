package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/keeper"
	"github.com/xraph/keeper/access"
)

func (a *API) registerCheckRoutes(router forge.Router) error {
	g := router.Group("/v1/authz", forge.WithGroupTags("authorization"))

	if err := g.POST("/check", a.check,
		forge.WithSummary("Access check"),
		forge.WithDescription("Evaluates whether the request subject can perform the operation on the list or record."),
		forge.WithOperationID("authzCheck"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check result", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/enforce", a.enforce,
		forge.WithSummary("Enforce access"),
		forge.WithDescription("Returns 200 if allowed, 403 if denied."),
		forge.WithOperationID("authzEnforce"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Allowed", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/batch-check", a.batchCheck,
		forge.WithSummary("Batch access check"),
		forge.WithDescription("Evaluates multiple access checks in one request."),
		forge.WithOperationID("authzBatchCheck"),
		forge.WithRequestSchema(BatchCheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Batch results", BatchCheckResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) check(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	c := a.subjectCtx(ctx)
	result, err := a.eng.Check(c, toCheckRequest(keeper.SubjectFrom(c), req))
	if err != nil {
		return nil, mapError(err)
	}

	resp := toCheckResponse(result)
	return resp, nil
}

func (a *API) enforce(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	c := a.subjectCtx(ctx)
	result, err := a.eng.Check(c, toCheckRequest(keeper.SubjectFrom(c), req))
	if err != nil {
		return nil, mapError(err)
	}

	resp := toCheckResponse(result)
	if !result.Allowed {
		return nil, ctx.JSON(http.StatusForbidden, resp)
	}
	return resp, nil
}

func (a *API) batchCheck(ctx forge.Context, req *BatchCheckRequest) (*BatchCheckResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	c := a.subjectCtx(ctx)
	subject := keeper.SubjectFrom(c)
	results := make([]CheckResponse, len(req.Checks))
	for i := range req.Checks {
		result, err := a.eng.Check(c, toCheckRequest(subject, &req.Checks[i]))
		if err != nil {
			return nil, mapError(err)
		}
		results[i] = *toCheckResponse(result)
	}

	resp := &BatchCheckResponse{Results: results}
	return resp, nil
}

func toCheckRequest(subject *access.Subject, r *CheckRequest) *keeper.CheckRequest {
	return &keeper.CheckRequest{
		Subject:    subject,
		Operation:  access.Operation(r.Operation),
		List:       r.List,
		ResourceID: r.ResourceID,
	}
}

func toCheckResponse(r *keeper.CheckResult) *CheckResponse {
	return &CheckResponse{
		Allowed:    r.Allowed,
		Decision:   string(r.Kind),
		Filter:     r.Filter,
		Reason:     r.Reason,
		EvalTimeNs: r.EvalTimeNs,
	}
}
