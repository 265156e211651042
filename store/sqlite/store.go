// Package sqlite provides a SQLite implementation of the keeper composite
// store using grove ORM with Go-based migrations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/keeper/checklog"
	"github.com/xraph/keeper/id"
	"github.com/xraph/keeper/item"
	"github.com/xraph/keeper/store"
	"github.com/xraph/keeper/user"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of the composite keeper store.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("keeper/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("keeper/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports a failed UNIQUE or PRIMARY KEY constraint.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// rowsResult is the part of an exec result affected needs.
type rowsResult interface {
	RowsAffected() (int64, error)
}

// affected reports ErrNotFound when an update or delete touched no row.
func affected(res rowsResult, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Item operations
// ──────────────────────────────────────────────────

func (s *Store) CreateItem(ctx context.Context, it *item.Item) error {
	m, err := itemToModel(it)
	if err != nil {
		return fmt.Errorf("keeper: create item: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("item %s: %w", it.ID, store.ErrDuplicate)
		}
		return fmt.Errorf("keeper: create item: %w", err)
	}
	return nil
}

func (s *Store) GetItem(ctx context.Context, list string, itemID id.ItemID) (*item.Item, error) {
	m := new(itemModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", itemID.String()).
		Where("list = ?", list).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%s %s: %w", list, itemID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("keeper: get item: %w", err)
	}
	it, err := itemFromModel(m)
	if err != nil {
		return nil, fmt.Errorf("keeper: get item: %w", err)
	}
	return it, nil
}

func (s *Store) UpdateItem(ctx context.Context, it *item.Item) error {
	m, err := itemToModel(it)
	if err != nil {
		return fmt.Errorf("keeper: update item: %w", err)
	}
	res, err := s.sdb.NewUpdate(m).WherePK().Where("list = ?", it.List).Exec(ctx)
	if err != nil {
		return fmt.Errorf("keeper: update item: %w", err)
	}
	return affected(res, fmt.Sprintf("%s %s", it.List, it.ID))
}

func (s *Store) DeleteItem(ctx context.Context, list string, itemID id.ItemID) error {
	res, err := s.sdb.NewDelete((*itemModel)(nil)).
		Where("id = ?", itemID.String()).
		Where("list = ?", list).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("keeper: delete item: %w", err)
	}
	return affected(res, fmt.Sprintf("%s %s", list, itemID))
}

func (s *Store) ListItems(ctx context.Context, filter *item.ListFilter) ([]*item.Item, error) {
	var models []itemModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC, id ASC")
	for _, c := range store.ItemConditions(filter) {
		q = q.Where(c.Expr, c.Args...)
	}
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("keeper: list items: %w", err)
	}
	result := make([]*item.Item, 0, len(models))
	for i := range models {
		it, err := itemFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("keeper: list items: %w", err)
		}
		result = append(result, it)
	}
	return result, nil
}

func (s *Store) CountItems(ctx context.Context, filter *item.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*itemModel)(nil))
	for _, c := range store.ItemConditions(filter) {
		q = q.Where(c.Expr, c.Args...)
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("keeper: count items: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// User operations
// ──────────────────────────────────────────────────

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	if _, err := s.sdb.NewInsert(userToModel(u)).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", u.ID, store.ErrDuplicate)
		}
		return fmt.Errorf("keeper: create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	m := new(userModel)
	err := s.sdb.NewSelect(m).Where("id = ?", userID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("keeper: get user: %w", err)
	}
	return userFromModel(m), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	m := new(userModel)
	err := s.sdb.NewSelect(m).Where("email = ?", user.NormalizeEmail(email)).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("user email %q: %w", email, store.ErrNotFound)
		}
		return nil, fmt.Errorf("keeper: get user by email: %w", err)
	}
	return userFromModel(m), nil
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	res, err := s.sdb.NewUpdate(userToModel(u)).WherePK().Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email %q: %w", u.Email, store.ErrDuplicate)
		}
		return fmt.Errorf("keeper: update user: %w", err)
	}
	return affected(res, "user "+u.ID.String())
}

func (s *Store) DeleteUser(ctx context.Context, userID id.UserID) error {
	res, err := s.sdb.NewDelete((*userModel)(nil)).
		Where("id = ?", userID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("keeper: delete user: %w", err)
	}
	return affected(res, "user "+userID.String())
}

func (s *Store) ListUsers(ctx context.Context, filter *user.ListFilter) ([]*user.User, error) {
	var models []userModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC, id ASC")
	for _, c := range store.UserConditions(filter) {
		q = q.Where(c.Expr, c.Args...)
	}
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("keeper: list users: %w", err)
	}
	result := make([]*user.User, len(models))
	for i := range models {
		result[i] = userFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountUsers(ctx context.Context, filter *user.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*userModel)(nil))
	for _, c := range store.UserConditions(filter) {
		q = q.Where(c.Expr, c.Args...)
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("keeper: count users: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Check log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateCheckLog(ctx context.Context, e *checklog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if _, err := s.sdb.NewInsert(checkLogToModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("keeper: create check log: %w", err)
	}
	return nil
}

func (s *Store) GetCheckLog(ctx context.Context, logID id.CheckLogID) (*checklog.Entry, error) {
	m := new(checkLogModel)
	err := s.sdb.NewSelect(m).Where("id = ?", logID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("check log %s: %w", logID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("keeper: get check log: %w", err)
	}
	return checkLogFromModel(m), nil
}

func (s *Store) ListCheckLogs(ctx context.Context, filter *checklog.QueryFilter) ([]*checklog.Entry, error) {
	var models []checkLogModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at DESC, id DESC")
	for _, c := range store.CheckLogConditions(filter) {
		q = q.Where(c.Expr, c.Args...)
	}
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("keeper: list check logs: %w", err)
	}
	result := make([]*checklog.Entry, len(models))
	for i := range models {
		result[i] = checkLogFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountCheckLogs(ctx context.Context, filter *checklog.QueryFilter) (int64, error) {
	q := s.sdb.NewSelect((*checkLogModel)(nil))
	for _, c := range store.CheckLogConditions(filter) {
		q = q.Where(c.Expr, c.Args...)
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("keeper: count check logs: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeCheckLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.sdb.NewDelete((*checkLogModel)(nil)).
		Where("created_at < ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("keeper: purge check logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("keeper: purge check logs rows: %w", err)
	}
	return n, nil
}
