// Package item defines the list record entity and its store interface.
package item

import (
	"slices"
	"strings"
	"time"

	"github.com/xraph/keeper/access"
	"github.com/xraph/keeper/id"
)

// Item is a record of a declared list. Field values are normalized by the
// list schema before they reach the store.
type Item struct {
	ID        id.ItemID      `json:"id" db:"id"`
	List      string         `json:"list" db:"list"`
	OwnerID   string         `json:"owner_id,omitempty" db:"owner_id"`
	Label     string         `json:"label" db:"label"`
	Fields    map[string]any `json:"fields" db:"fields"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// AccessField exposes the record attributes policy filters constrain.
func (i *Item) AccessField(f access.Field) (string, bool) {
	switch f {
	case access.FieldID:
		return i.ID.String(), !i.ID.IsNil()
	case access.FieldOwner:
		return i.OwnerID, i.OwnerID != ""
	}
	return "", false
}

// Clone returns a deep copy of the item. Slice values are copied so that
// callers can mutate relationship lists freely.
func (i *Item) Clone() *Item {
	c := *i
	c.Fields = make(map[string]any, len(i.Fields))
	for k, v := range i.Fields {
		if ids, ok := v.([]string); ok {
			v = slices.Clone(ids)
		}
		c.Fields[k] = v
	}
	return &c
}

// ListFilter contains filters for listing the items of one list.
type ListFilter struct {
	List string `json:"list"`

	// Where holds equality constraints that must all match. Only
	// access.FieldID and access.FieldOwner are supported.
	Where []access.Filter `json:"where,omitempty"`

	// Search matches the item label, case-insensitively.
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Matches reports whether it satisfies every Where constraint and the
// search term. Backends without query pushdown use it directly.
func (f *ListFilter) Matches(it *Item) bool {
	if f == nil {
		return true
	}
	if f.List != "" && it.List != f.List {
		return false
	}
	for _, w := range f.Where {
		if !w.Matches(it) {
			return false
		}
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(it.Label), strings.ToLower(f.Search)) {
		return false
	}
	return true
}
