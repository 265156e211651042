package keeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/xraph/keeper/access"
	"github.com/xraph/keeper/id"
	"github.com/xraph/keeper/item"
	"github.com/xraph/keeper/schema"
	"github.com/xraph/keeper/store"
)

// ItemQuery selects items of one list.
type ItemQuery struct {
	List   string `json:"list"`
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// CreateItem validates fields against the list schema, checks create
// access for the context subject and stores the new item. Ownership comes
// from the "user" field and is never filled in from the subject.
func (e *Engine) CreateItem(ctx context.Context, list string, fields map[string]any) (*item.Item, error) {
	l, err := e.itemList(list)
	if err != nil {
		return nil, err
	}
	normalized, err := l.Normalize(fields, false)
	if err != nil {
		return nil, fieldErr(err)
	}

	now := time.Now().UTC()
	it := &item.Item{
		ID:        id.NewItemID(),
		List:      l.Name,
		Fields:    normalized,
		CreatedAt: now,
		UpdatedAt: now,
	}
	it.OwnerID = ownerOf(l, it.Fields)
	it.Label = l.LabelFor(it.ID.String(), it.Fields)

	res, err := e.authorize(ctx, access.OpCreate, l.Name, it)
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		return nil, fmt.Errorf("%w: create %s: %s", ErrAccessDenied, l.Name, res.Reason)
	}

	if err := e.checkReferences(ctx, l, normalized); err != nil {
		return nil, err
	}
	if err := e.store.CreateItem(ctx, it); err != nil {
		return nil, fmt.Errorf("keeper: create %s: %w", l.Name, err)
	}
	if err := e.syncBackReferences(ctx, l, it.ID.String(), nil, it.Fields); err != nil {
		return nil, err
	}

	if e.plugins != nil {
		e.plugins.EmitItemCreated(ctx, it)
	}
	return it, nil
}

// GetItem returns an item the context subject may read. An item outside
// the subject's read filter is reported as not found.
func (e *Engine) GetItem(ctx context.Context, list, itemID string) (*item.Item, error) {
	l, err := e.itemList(list)
	if err != nil {
		return nil, err
	}
	it, err := e.loadItem(ctx, l.Name, itemID)
	if errors.Is(err, ErrItemNotFound) {
		return nil, e.hiddenErr(ctx, access.OpRead, l.Name, err)
	}
	if err != nil {
		return nil, err
	}
	res, err := e.authorize(ctx, access.OpRead, l.Name, it)
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		if res.Decision.IsDeny() {
			return nil, fmt.Errorf("%w: read %s: %s", ErrAccessDenied, l.Name, res.Reason)
		}
		return nil, fmt.Errorf("%w: %s %s", ErrItemNotFound, l.Name, itemID)
	}
	return it, nil
}

// ListItems returns the items of a list the context subject may read. A
// conditional read decision is pushed to the store as a row filter.
func (e *Engine) ListItems(ctx context.Context, q *ItemQuery) ([]*item.Item, error) {
	filter, err := e.itemFilter(ctx, q)
	if err != nil {
		return nil, err
	}
	filter.Limit = e.config.PageSize(q.Limit)
	items, err := e.store.ListItems(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("keeper: list %s: %w", q.List, err)
	}
	return items, nil
}

// CountItems returns how many items of a list the context subject may read.
func (e *Engine) CountItems(ctx context.Context, q *ItemQuery) (int64, error) {
	filter, err := e.itemFilter(ctx, q)
	if err != nil {
		return 0, err
	}
	filter.Limit, filter.Offset = 0, 0
	n, err := e.store.CountItems(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("keeper: count %s: %w", q.List, err)
	}
	return n, nil
}

// UpdateItem applies a partial update. A nil value clears a field. Both
// the stored item and the updated item must satisfy the update decision,
// so a conditional grant cannot hand an item to another owner.
func (e *Engine) UpdateItem(ctx context.Context, list, itemID string, fields map[string]any) (*item.Item, error) {
	l, err := e.itemList(list)
	if err != nil {
		return nil, err
	}
	cur, err := e.loadItem(ctx, l.Name, itemID)
	if errors.Is(err, ErrItemNotFound) {
		return nil, e.hiddenErr(ctx, access.OpUpdate, l.Name, err)
	}
	if err != nil {
		return nil, err
	}
	res, err := e.authorize(ctx, access.OpUpdate, l.Name, cur)
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		return nil, fmt.Errorf("%w: update %s: %s", ErrAccessDenied, l.Name, res.Reason)
	}

	normalized, err := l.Normalize(fields, true)
	if err != nil {
		return nil, fieldErr(err)
	}
	next := cur.Clone()
	for k, v := range normalized {
		if v == nil {
			delete(next.Fields, k)
			continue
		}
		next.Fields[k] = v
	}
	next.OwnerID = ownerOf(l, next.Fields)
	if !res.Decision.Permits(next) {
		return nil, fmt.Errorf("%w: update %s: result would fall outside %s", ErrAccessDenied, l.Name, res.Decision)
	}
	if err := e.checkReferences(ctx, l, normalized); err != nil {
		return nil, err
	}
	next.Label = l.LabelFor(next.ID.String(), next.Fields)
	next.UpdatedAt = time.Now().UTC()

	if err := e.store.UpdateItem(ctx, next); err != nil {
		return nil, fmt.Errorf("keeper: update %s: %w", l.Name, err)
	}
	if err := e.syncBackReferences(ctx, l, next.ID.String(), cur.Fields, next.Fields); err != nil {
		return nil, err
	}

	if e.plugins != nil {
		e.plugins.EmitItemUpdated(ctx, next)
	}
	return next, nil
}

// DeleteItem removes an item and every reference to it.
func (e *Engine) DeleteItem(ctx context.Context, list, itemID string) error {
	l, err := e.itemList(list)
	if err != nil {
		return err
	}
	it, err := e.loadItem(ctx, l.Name, itemID)
	if errors.Is(err, ErrItemNotFound) {
		return e.hiddenErr(ctx, access.OpDelete, l.Name, err)
	}
	if err != nil {
		return err
	}
	res, err := e.authorize(ctx, access.OpDelete, l.Name, it)
	if err != nil {
		return err
	}
	if !res.Allowed {
		return fmt.Errorf("%w: delete %s: %s", ErrAccessDenied, l.Name, res.Reason)
	}

	if err := e.store.DeleteItem(ctx, l.Name, it.ID); err != nil {
		return fmt.Errorf("keeper: delete %s: %w", l.Name, err)
	}
	if err := e.detachItem(ctx, l, it); err != nil {
		return err
	}

	if e.plugins != nil {
		e.plugins.EmitItemDeleted(ctx, l.Name, it.ID)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (e *Engine) itemList(name string) (*schema.List, error) {
	if name == schema.UserList {
		return nil, ErrUserList
	}
	return e.registry.Get(name)
}

func (e *Engine) loadItem(ctx context.Context, list, itemID string) (*item.Item, error) {
	iid, err := id.ParseItemID(itemID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q", ErrItemNotFound, list, itemID)
	}
	it, err := e.store.GetItem(ctx, list, iid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s %s", ErrItemNotFound, list, itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("keeper: get %s: %w", list, err)
	}
	return it, nil
}

// itemFilter builds the store filter for a read of q.List, adding the row
// constraint of a conditional decision.
func (e *Engine) itemFilter(ctx context.Context, q *ItemQuery) (*item.ListFilter, error) {
	if q == nil {
		return nil, fmt.Errorf("%w: query is required", ErrListNotFound)
	}
	l, err := e.itemList(q.List)
	if err != nil {
		return nil, err
	}
	res, err := e.authorize(ctx, access.OpRead, l.Name, nil)
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		return nil, fmt.Errorf("%w: read %s: %s", ErrAccessDenied, l.Name, res.Reason)
	}
	filter := &item.ListFilter{List: l.Name, Search: q.Search, Offset: q.Offset}
	if f, ok := res.Decision.Filter(); ok {
		filter.Where = append(filter.Where, f)
	}
	return filter, nil
}

func ownerOf(l *schema.List, fields map[string]any) string {
	if !l.Ownable {
		return ""
	}
	owner, _ := fields[schema.OwnerField].(string)
	return owner
}

func fieldErr(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidField, err)
}

// checkReferences verifies that every relationship value names an existing
// record of the target list.
func (e *Engine) checkReferences(ctx context.Context, l *schema.List, fields map[string]any) error {
	for _, f := range l.Relationships() {
		v, ok := fields[f.Name]
		if !ok || v == nil || f.Derived {
			continue
		}
		for _, ref := range schema.RefIDs(v) {
			_, err := e.loadRecord(ctx, f.RefList(), ref)
			if errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrUserNotFound) {
				return fmt.Errorf("%w: %s.%s names missing %s %q", ErrInvalidReference, l.Name, f.Name, f.RefList(), ref)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// syncBackReferences keeps the derived many side of two-sided
// relationships in step with the forward values of one item.
func (e *Engine) syncBackReferences(ctx context.Context, l *schema.List, itemID string, before, after map[string]any) error {
	for fwdName, back := range e.registry.BackReferences(l.Name) {
		fwd, _ := l.Field(fwdName)
		oldRefs, newRefs := schema.RefIDs(before[fwdName]), schema.RefIDs(after[fwdName])
		for _, ref := range oldRefs {
			if slices.Contains(newRefs, ref) {
				continue
			}
			if err := e.editRefs(ctx, fwd.RefList(), ref, back, removeRef(itemID)); err != nil {
				return err
			}
		}
		for _, ref := range newRefs {
			if slices.Contains(oldRefs, ref) {
				continue
			}
			if err := e.editRefs(ctx, fwd.RefList(), ref, back, addRef(itemID)); err != nil {
				return err
			}
		}
	}
	return nil
}

// detachItem removes every reference to a deleted item: its entries in
// parents' derived fields, the forward field of its children, and one-sided
// relationships of other lists.
func (e *Engine) detachItem(ctx context.Context, l *schema.List, it *item.Item) error {
	if err := e.syncBackReferences(ctx, l, it.ID.String(), it.Fields, nil); err != nil {
		return err
	}
	itemID := it.ID.String()
	for _, f := range l.Relationships() {
		if !f.Derived {
			continue
		}
		child, ok := e.registryField(f.RefList(), f.RefField())
		if !ok {
			continue
		}
		for _, ref := range schema.RefIDs(it.Fields[f.Name]) {
			if err := e.editRefs(ctx, f.RefList(), ref, child, removeRef(itemID)); err != nil {
				return err
			}
		}
	}
	for _, other := range e.registry.Lists() {
		if other.Name == schema.UserList {
			continue
		}
		for _, f := range other.Relationships() {
			if f.RefList() != l.Name || f.RefField() != "" {
				continue
			}
			if err := e.detachOneSided(ctx, other.Name, f, itemID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) detachOneSided(ctx context.Context, list string, f schema.Field, itemID string) error {
	items, err := e.store.ListItems(ctx, &item.ListFilter{List: list})
	if err != nil {
		return fmt.Errorf("keeper: scan %s: %w", list, err)
	}
	for _, it := range items {
		if !slices.Contains(schema.RefIDs(it.Fields[f.Name]), itemID) {
			continue
		}
		if err := e.editRefs(ctx, list, it.ID.String(), f, removeRef(itemID)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) registryField(list, field string) (schema.Field, bool) {
	l, err := e.registry.Get(list)
	if err != nil {
		return schema.Field{}, false
	}
	return l.Field(field)
}

type refEdit func([]string) []string

func addRef(ref string) refEdit {
	return func(ids []string) []string {
		if slices.Contains(ids, ref) {
			return ids
		}
		return append(ids, ref)
	}
}

func removeRef(ref string) refEdit {
	return func(ids []string) []string {
		return slices.DeleteFunc(ids, func(s string) bool { return s == ref })
	}
}

// editRefs rewrites one relationship field of a stored item without an
// access check. A missing target is logged and skipped.
func (e *Engine) editRefs(ctx context.Context, list, itemID string, f schema.Field, edit refEdit) error {
	it, err := e.loadItem(ctx, list, itemID)
	if errors.Is(err, ErrItemNotFound) {
		e.logger.Warn("keeper: relationship target missing",
			slog.String("list", list),
			slog.String("item", itemID),
			slog.String("field", f.Name),
		)
		return nil
	}
	if err != nil {
		return err
	}
	ids := edit(schema.RefIDs(it.Fields[f.Name]))
	switch {
	case f.Many:
		it.Fields[f.Name] = ids
	case len(ids) == 0:
		delete(it.Fields, f.Name)
	default:
		it.Fields[f.Name] = ids[0]
	}
	it.UpdatedAt = time.Now().UTC()
	if err := e.store.UpdateItem(ctx, it); err != nil {
		return fmt.Errorf("keeper: update %s %s: %w", list, itemID, err)
	}
	return nil
}
