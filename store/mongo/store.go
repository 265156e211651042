// Package mongo provides a MongoDB implementation of the keeper composite
// store using grove ORM with index-based migrations.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/keeper/access"
	"github.com/xraph/keeper/checklog"
	"github.com/xraph/keeper/id"
	"github.com/xraph/keeper/item"
	"github.com/xraph/keeper/store"
	"github.com/xraph/keeper/user"
)

// Collection name constants.
const (
	colItems     = "keeper_items"
	colUsers     = "keeper_users"
	colCheckLogs = "keeper_check_logs"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite keeper store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all keeper collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()
	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("keeper/mongo: migrate %s indexes: %w", col, err)
		}
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all keeper collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colItems: {
			{Keys: bson.D{{Key: "list", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "list", Value: 1}, {Key: "owner_id", Value: 1}}},
		},
		colUsers: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colCheckLogs: {
			{Keys: bson.D{{Key: "subject_id", Value: 1}}},
			{Keys: bson.D{{Key: "list", Value: 1}, {Key: "operation", Value: 1}}},
			{Keys: bson.D{{Key: "decision", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}
}

// whereKey maps a filter field to its document key.
func whereKey(f access.Field) (string, bool) {
	switch f {
	case access.FieldID:
		return "_id", true
	case access.FieldOwner:
		return "owner_id", true
	}
	return "", false
}

// none is a filter no document satisfies.
var none = bson.M{"_id": bson.M{"$exists": false}}

func contains(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}

// ──────────────────────────────────────────────────
// Item operations
// ──────────────────────────────────────────────────

func itemFilter(filter *item.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.List != "" {
		f["list"] = filter.List
	}
	for _, w := range filter.Where {
		key, ok := whereKey(w.Field)
		if !ok {
			return none
		}
		f[key] = w.Value
	}
	if filter.Search != "" {
		f["label"] = contains(filter.Search)
	}
	return f
}

func (s *Store) CreateItem(ctx context.Context, it *item.Item) error {
	if _, err := s.mdb.NewInsert(itemToModel(it)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("item %s: %w", it.ID, store.ErrDuplicate)
		}
		return fmt.Errorf("keeper: create item: %w", err)
	}
	return nil
}

func (s *Store) GetItem(ctx context.Context, list string, itemID id.ItemID) (*item.Item, error) {
	var m itemModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": itemID.String(), "list": list}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%s %s: %w", list, itemID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("keeper: get item: %w", err)
	}
	return itemFromModel(&m), nil
}

func (s *Store) UpdateItem(ctx context.Context, it *item.Item) error {
	m := itemToModel(it)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID, "list": m.List}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("keeper: update item: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("%s %s: %w", it.List, it.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, list string, itemID id.ItemID) error {
	res, err := s.mdb.NewDelete((*itemModel)(nil)).
		Filter(bson.M{"_id": itemID.String(), "list": list}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("keeper: delete item: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("%s %s: %w", list, itemID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListItems(ctx context.Context, filter *item.ListFilter) ([]*item.Item, error) {
	var models []itemModel
	q := s.mdb.NewFind(&models).
		Filter(itemFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("keeper: list items: %w", err)
	}
	result := make([]*item.Item, len(models))
	for i := range models {
		result[i] = itemFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountItems(ctx context.Context, filter *item.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*itemModel)(nil)).
		Filter(itemFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("keeper: count items: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// User operations
// ──────────────────────────────────────────────────

func userFilter(filter *user.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	for _, w := range filter.Where {
		if w.Field != access.FieldID {
			return none
		}
		f["_id"] = w.Value
	}
	if filter.Search != "" {
		f["$or"] = bson.A{
			bson.M{"name": contains(filter.Search)},
			bson.M{"email": contains(filter.Search)},
		}
	}
	return f
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	if _, err := s.mdb.NewInsert(userToModel(u)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", u.ID, store.ErrDuplicate)
		}
		return fmt.Errorf("keeper: create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	var m userModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": userID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("keeper: get user: %w", err)
	}
	return userFromModel(&m), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	var m userModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"email": user.NormalizeEmail(email)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("user email %q: %w", email, store.ErrNotFound)
		}
		return nil, fmt.Errorf("keeper: get user by email: %w", err)
	}
	return userFromModel(&m), nil
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	m := userToModel(u)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("email %q: %w", u.Email, store.ErrDuplicate)
		}
		return fmt.Errorf("keeper: update user: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("user %s: %w", u.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, userID id.UserID) error {
	res, err := s.mdb.NewDelete((*userModel)(nil)).
		Filter(bson.M{"_id": userID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("keeper: delete user: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, filter *user.ListFilter) ([]*user.User, error) {
	var models []userModel
	q := s.mdb.NewFind(&models).
		Filter(userFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	count, err := s.mdb.NewFind((*userModel)(nil)).
		Filter(userFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("keeper: count users: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Check log operations
// ──────────────────────────────────────────────────

func checkLogFilter(filter *checklog.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.SubjectID != "" {
		f["subject_id"] = filter.SubjectID
	}
	if filter.Operation != "" {
		f["operation"] = filter.Operation
	}
	if filter.List != "" {
		f["list"] = filter.List
	}
	if filter.Decision != "" {
		f["decision"] = filter.Decision
	}
	if filter.After != nil || filter.Before != nil {
		dateFilter := bson.M{}
		if filter.After != nil {
			dateFilter["$gte"] = *filter.After
		}
		if filter.Before != nil {
			dateFilter["$lte"] = *filter.Before
		}
		f["created_at"] = dateFilter
	}
	return f
}

func (s *Store) CreateCheckLog(ctx context.Context, e *checklog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if _, err := s.mdb.NewInsert(checkLogToModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("keeper: create check log: %w", err)
	}
	return nil
}

func (s *Store) GetCheckLog(ctx context.Context, logID id.CheckLogID) (*checklog.Entry, error) {
	var m checkLogModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": logID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("check log %s: %w", logID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("keeper: get check log: %w", err)
	}
	return checkLogFromModel(&m), nil
}

func (s *Store) ListCheckLogs(ctx context.Context, filter *checklog.QueryFilter) ([]*checklog.Entry, error) {
	var models []checkLogModel
	q := s.mdb.NewFind(&models).
		Filter(checkLogFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	count, err := s.mdb.NewFind((*checkLogModel)(nil)).
		Filter(checkLogFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("keeper: count check logs: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeCheckLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*checkLogModel)(nil)).
		Many().
		Filter(bson.M{"created_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("keeper: purge check logs: %w", err)
	}
	return res.DeletedCount(), nil
}
