package keeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/keeper/access"
	"github.com/xraph/keeper/auth"
	"github.com/xraph/keeper/checklog"
	"github.com/xraph/keeper/id"
	"github.com/xraph/keeper/lists"
	"github.com/xraph/keeper/plugin"
	"github.com/xraph/keeper/schema"
	"github.com/xraph/keeper/session"
	"github.com/xraph/keeper/store"
)

// Engine is the central keeper engine. It evaluates list access tables,
// applies their decisions to records, manages the store and fires plugin
// hooks.
type Engine struct {
	store    store.Store
	registry *schema.Registry
	sessions session.Store
	auth     *auth.Strategy
	plugins  *plugin.Registry
	logger   *slog.Logger
	config   Config
}

// NewEngine creates a new keeper engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, errors.New("keeper: store is required")
	}
	if e.registry == nil {
		reg, err := lists.New(lists.Options{StrictCreate: e.config.StrictCreate})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSchema, err)
		}
		e.registry = reg
	}
	if _, err := e.registry.Get(schema.UserList); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}
	if e.sessions == nil {
		e.sessions = session.NewMemory()
	}
	e.auth = auth.NewStrategy(e.store, e.sessions)
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Registry returns the list registry.
func (e *Engine) Registry() *schema.Registry { return e.registry }

// Auth returns the password strategy used for sign-in and token lookup.
func (e *Engine) Auth() *auth.Strategy { return e.auth }

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

// Start checks that the store is reachable.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Ping(ctx); err != nil {
		return fmt.Errorf("keeper: store ping: %w", err)
	}
	return nil
}

// Stop performs graceful shutdown.
func (e *Engine) Stop(ctx context.Context) error {
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	return nil
}

// Decide evaluates the rule of list for subject performing op. It is pure:
// no hooks fire and nothing is recorded.
func (e *Engine) Decide(subject *access.Subject, op access.Operation, list string) (access.Decision, error) {
	l, err := e.registry.Get(list)
	if err != nil {
		return access.Deny, err
	}
	return l.Access.Evaluate(subject, op)
}

// Check performs an access check. Decisions are evaluated on every call
// and never cached.
func (e *Engine) Check(ctx context.Context, req *CheckRequest) (*CheckResult, error) {
	start := time.Now()

	l, err := e.registry.Get(req.List)
	if err != nil {
		return nil, err
	}
	if !req.Operation.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, req.Operation)
	}

	if e.plugins != nil {
		e.plugins.EmitBeforeCheck(ctx, req)
	}

	d, err := l.Access.Evaluate(req.Subject, req.Operation)
	if err != nil {
		return nil, fmt.Errorf("keeper: evaluate %s on %s: %w", req.Operation, req.List, err)
	}

	res := req.Resource
	if res == nil && req.ResourceID != "" {
		res, err = e.loadRecord(ctx, l.Name, req.ResourceID)
		if err != nil {
			return nil, err
		}
	}

	result := newCheckResult(d, res)
	result.EvalTimeNs = time.Since(start).Nanoseconds()

	e.audit(ctx, req, res, result)

	if e.plugins != nil {
		e.plugins.EmitAfterCheck(ctx, req, result)
	}

	return result, nil
}

// Enforce returns an error if the access check is denied.
func (e *Engine) Enforce(ctx context.Context, req *CheckRequest) error {
	result, err := e.Check(ctx, req)
	if err != nil {
		return fmt.Errorf("keeper check: %w", err)
	}
	if !result.Allowed {
		return fmt.Errorf("%w: %s", ErrAccessDenied, result.Reason)
	}
	return nil
}

// authorize checks the context subject performing op on r. A nil r checks
// at list level.
func (e *Engine) authorize(ctx context.Context, op access.Operation, list string, r access.Record) (*CheckResult, error) {
	req := &CheckRequest{Subject: SubjectFrom(ctx), Operation: op, List: list}
	if r != nil {
		req.Resource = r
	}
	return e.Check(ctx, req)
}

// hiddenErr is returned for a record that could not be loaded. Subjects the
// list denies outright get ErrAccessDenied so that a missing record is
// indistinguishable from a present one.
func (e *Engine) hiddenErr(ctx context.Context, op access.Operation, list string, notFound error) error {
	d, err := e.Decide(SubjectFrom(ctx), op, list)
	if err == nil && d.IsDeny() {
		return fmt.Errorf("%w: %s %s", ErrAccessDenied, op, list)
	}
	return notFound
}

func newCheckResult(d access.Decision, r access.Record) *CheckResult {
	out := &CheckResult{Decision: d, Kind: d.Kind()}
	f, conditional := d.Filter()
	if conditional {
		out.Filter = &f
	}
	switch {
	case d.IsAllow():
		out.Allowed = true
		out.Reason = "rule allows every record"
	case d.IsDeny():
		out.Reason = "rule denies the operation"
	case r == nil:
		out.Allowed = true
		out.Reason = "rule allows records where " + f.String()
	case d.Permits(r):
		out.Allowed = true
		out.Reason = "record matches " + f.String()
	default:
		out.Reason = "record does not match " + f.String()
	}
	return out
}

// loadRecord fetches a stored record of list for filter evaluation.
func (e *Engine) loadRecord(ctx context.Context, list, recordID string) (access.Record, error) {
	if list == schema.UserList {
		u, err := e.loadUser(ctx, recordID)
		if err != nil {
			return nil, err
		}
		return u, nil
	}
	it, err := e.loadItem(ctx, list, recordID)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (e *Engine) audit(ctx context.Context, req *CheckRequest, r access.Record, result *CheckResult) {
	if !e.config.AuditChecks {
		return
	}
	entry := &checklog.Entry{
		ID:         id.NewCheckLogID(),
		Anonymous:  req.Subject == nil,
		Operation:  string(req.Operation),
		List:       req.List,
		ResourceID: req.ResourceID,
		Decision:   string(result.Kind),
		Reason:     result.Reason,
		EvalTimeNs: result.EvalTimeNs,
		CreatedAt:  time.Now().UTC(),
	}
	if req.Subject != nil {
		entry.SubjectID = req.Subject.ID
	}
	if r != nil {
		if rid, ok := r.AccessField(access.FieldID); ok {
			entry.ResourceID = rid
		}
	}
	if result.Filter != nil {
		entry.Filter = result.Filter.String()
	}
	if err := e.store.CreateCheckLog(ctx, entry); err != nil {
		e.logger.Warn("keeper: record check log failed",
			slog.String("list", req.List),
			slog.String("operation", string(req.Operation)),
			slog.String("error", err.Error()),
		)
	}
}

// ListCheckLogs returns recorded access checks. Only administrators may
// read the check log.
func (e *Engine) ListCheckLogs(ctx context.Context, filter *checklog.QueryFilter) ([]*checklog.Entry, int64, error) {
	if !access.IsAdministrator(SubjectFrom(ctx)) {
		return nil, 0, fmt.Errorf("%w: check log is restricted to administrators", ErrAccessDenied)
	}
	if filter == nil {
		filter = &checklog.QueryFilter{}
	}
	q := *filter
	q.Limit = e.config.PageSize(q.Limit)
	entries, err := e.store.ListCheckLogs(ctx, &q)
	if err != nil {
		return nil, 0, fmt.Errorf("keeper: list check logs: %w", err)
	}
	total, err := e.store.CountCheckLogs(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("keeper: count check logs: %w", err)
	}
	return entries, total, nil
}

// GetCheckLog returns one recorded access check. Administrators only.
func (e *Engine) GetCheckLog(ctx context.Context, logID string) (*checklog.Entry, error) {
	if !access.IsAdministrator(SubjectFrom(ctx)) {
		return nil, fmt.Errorf("%w: check log is restricted to administrators", ErrAccessDenied)
	}
	lid, err := id.ParseCheckLogID(logID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrCheckLogNotFound, logID)
	}
	entry, err := e.store.GetCheckLog(ctx, lid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCheckLogNotFound, logID)
	}
	if err != nil {
		return nil, fmt.Errorf("keeper: get check log: %w", err)
	}
	return entry, nil
}

// PurgeCheckLogs removes check log entries recorded before the given time
// and reports how many were removed. Administrators only.
func (e *Engine) PurgeCheckLogs(ctx context.Context, before time.Time) (int64, error) {
	if !access.IsAdministrator(SubjectFrom(ctx)) {
		return 0, fmt.Errorf("%w: check log is restricted to administrators", ErrAccessDenied)
	}
	n, err := e.store.PurgeCheckLogs(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("keeper: purge check logs: %w", err)
	}
	e.logger.Info("keeper: purged check logs", slog.Int64("removed", n), slog.Time("before", before))
	return n, nil
}
