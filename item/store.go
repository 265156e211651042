package item

import (
	"context"

	"github.com/xraph/keeper/id"
)

// Store defines persistence operations for list items.
type Store interface {
	// CreateItem persists a new item.
	CreateItem(ctx context.Context, it *Item) error

	// GetItem retrieves an item of a list by ID.
	GetItem(ctx context.Context, list string, itemID id.ItemID) (*Item, error)

	// UpdateItem persists changes to an item.
	UpdateItem(ctx context.Context, it *Item) error

	// DeleteItem removes an item by ID.
	DeleteItem(ctx context.Context, list string, itemID id.ItemID) error

	// ListItems returns items matching the filter, oldest first.
	ListItems(ctx context.Context, filter *ListFilter) ([]*Item, error)

	// CountItems returns the number of items matching the filter.
	CountItems(ctx context.Context, filter *ListFilter) (int64, error)
}
