package api

import (
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/keeper/checklog"
	"github.com/xraph/keeper/middleware"
)

func (a *API) registerCheckLogRoutes(router forge.Router) error {
	g := router.Group("/v1",
		forge.WithGroupTags("check-logs"),
		forge.WithGroupMiddleware(middleware.RequireAdmin(a.eng)),
	)

	if err := g.GET("/check-logs", a.listCheckLogs,
		forge.WithSummary("Query check logs"),
		forge.WithDescription("Returns access check audit logs with optional filters. Administrators only."),
		forge.WithOperationID("listCheckLogs"),
		forge.WithRequestSchema(ListCheckLogsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check log list", ListResponse[*checklog.Entry]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/check-logs/:logId", a.getCheckLog,
		forge.WithSummary("Get check log"),
		forge.WithDescription("Returns one access check audit entry. Administrators only."),
		forge.WithOperationID("getCheckLog"),
		forge.WithResponseSchema(http.StatusOK, "Check log entry", &checklog.Entry{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/check-logs", a.purgeCheckLogs,
		forge.WithSummary("Purge check logs"),
		forge.WithDescription("Removes audit entries recorded before a cutoff. Administrators only."),
		forge.WithOperationID("purgeCheckLogs"),
		forge.WithRequestSchema(PurgeCheckLogsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Purge result", PurgeResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listCheckLogs(ctx forge.Context, req *ListCheckLogsRequest) (*ListResponse[*checklog.Entry], error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	filter := &checklog.QueryFilter{
		SubjectID: req.SubjectID,
		Operation: req.Operation,
		List:      req.List,
		Decision:  req.Decision,
		Limit:     a.eng.Config().PageSize(req.Limit),
		Offset:    req.Offset,
	}

	if req.After != "" {
		t, err := time.Parse(time.RFC3339, req.After)
		if err != nil {
			return nil, forge.BadRequest("invalid after timestamp")
		}
		filter.After = &t
	}
	if req.Before != "" {
		t, err := time.Parse(time.RFC3339, req.Before)
		if err != nil {
			return nil, forge.BadRequest("invalid before timestamp")
		}
		filter.Before = &t
	}

	logs, total, err := a.eng.ListCheckLogs(a.subjectCtx(ctx), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*checklog.Entry]{Items: logs, Total: total, Limit: filter.Limit, Offset: filter.Offset}
	return resp, nil
}

func (a *API) getCheckLog(ctx forge.Context, _ *GetCheckLogRequest) (*checklog.Entry, error) {
	entry, err := a.eng.GetCheckLog(a.subjectCtx(ctx), ctx.Param("logId"))
	if err != nil {
		return nil, mapError(err)
	}
	return entry, nil
}

func (a *API) purgeCheckLogs(ctx forge.Context, req *PurgeCheckLogsRequest) (*PurgeResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	before, err := time.Parse(time.RFC3339, req.Before)
	if err != nil {
		return nil, forge.BadRequest("invalid before timestamp")
	}

	n, err := a.eng.PurgeCheckLogs(a.subjectCtx(ctx), before)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &PurgeResponse{Removed: n}
	return resp, nil
}
