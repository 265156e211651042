package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/keeper/access"
	"github.com/xraph/keeper/checklog"
	"github.com/xraph/keeper/id"
	"github.com/xraph/keeper/item"
	"github.com/xraph/keeper/store"
	"github.com/xraph/keeper/user"
)

func TestItemCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	it := &item.Item{
		ID:        id.NewItemID(),
		List:      "Shop",
		OwnerID:   "u1",
		Label:     "Corner",
		Fields:    map[string]any{"name": "Corner", "shopItems": []string{"a"}},
		CreatedAt: time.Now(),
	}

	// Create
	if err := s.CreateItem(ctx, it); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateItem(ctx, it); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Get
	got, err := s.GetItem(ctx, "Shop", it.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Label != "Corner" {
		t.Fatalf("expected Corner, got %s", got.Label)
	}
	if _, err := s.GetItem(ctx, "Channel", it.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected list mismatch to be not found, got %v", err)
	}

	// Mutating the returned copy must not leak into the store.
	got.Fields["shopItems"].([]string)[0] = "mutated"
	again, _ := s.GetItem(ctx, "Shop", it.ID)
	if again.Fields["shopItems"].([]string)[0] != "a" {
		t.Fatal("store returned shared slice")
	}

	// Update
	it.Label = "Main"
	if err := s.UpdateItem(ctx, it); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetItem(ctx, "Shop", it.ID)
	if got.Label != "Main" {
		t.Fatalf("expected Main, got %s", got.Label)
	}

	// Delete
	if err := s.DeleteItem(ctx, "Shop", it.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteItem(ctx, "Shop", it.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListItemsWhere(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Now()
	for i, owner := range []string{"u1", "u2", "u1"} {
		_ = s.CreateItem(ctx, &item.Item{
			ID:        id.NewItemID(),
			List:      "Shop",
			OwnerID:   owner,
			Label:     "shop",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}
	_ = s.CreateItem(ctx, &item.Item{ID: id.NewItemID(), List: "Channel", OwnerID: "u1", CreatedAt: base})

	tests := []struct {
		name   string
		filter *item.ListFilter
		want   int
	}{
		{"all shops", &item.ListFilter{List: "Shop"}, 3},
		{"owned", &item.ListFilter{List: "Shop", Where: []access.Filter{access.Eq(access.FieldOwner, "u1")}}, 2},
		{"nobody", &item.ListFilter{List: "Shop", Where: []access.Filter{access.Eq(access.FieldOwner, "u3")}}, 0},
		{"paged", &item.ListFilter{List: "Shop", Limit: 2}, 2},
		{"offset past end", &item.ListFilter{List: "Shop", Offset: 5}, 0},
		{"search miss", &item.ListFilter{List: "Shop", Search: "zzz"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListItems(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d items, got %d", tt.want, len(got))
			}
		})
	}

	list, _ := s.ListItems(ctx, &item.ListFilter{List: "Shop"})
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.Before(list[i-1].CreatedAt) {
			t.Fatal("expected oldest first")
		}
	}
	n, _ := s.CountItems(ctx, &item.ListFilter{List: "Shop", Where: []access.Filter{access.Eq(access.FieldOwner, "u1")}})
	if n != 2 {
		t.Fatalf("expected count 2, got %d", n)
	}
}

func TestUserEmailUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()

	u := &user.User{ID: id.NewUserID(), Name: "Ann", Email: "ann@example.com"}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	dup := &user.User{ID: id.NewUserID(), Email: "ANN@example.com "}
	if err := s.CreateUser(ctx, dup); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, err := s.GetUserByEmail(ctx, "Ann@Example.com")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID {
		t.Fatal("email lookup mismatch")
	}

	// Changing email frees the old address.
	u.Email = "ann@new.example"
	if err := s.UpdateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetUserByEmail(ctx, "ann@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected old email released, got %v", err)
	}
	if err := s.CreateUser(ctx, dup); err != nil {
		t.Fatalf("expected freed email to be reusable: %v", err)
	}

	// Taking another user's email fails.
	u.Email = dup.Email
	if err := s.UpdateUser(ctx, u); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if err := s.DeleteUser(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetUser(ctx, u.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsersWhere(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := &user.User{ID: id.NewUserID(), Name: "Ann", Email: "ann@example.com"}
	b := &user.User{ID: id.NewUserID(), Name: "Bob", Email: "bob@example.com"}
	_ = s.CreateUser(ctx, a)
	_ = s.CreateUser(ctx, b)

	got, _ := s.ListUsers(ctx, &user.ListFilter{Where: []access.Filter{access.Eq(access.FieldID, a.ID.String())}})
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("expected only Ann, got %v", got)
	}
	// Users carry no owner, so an owner filter matches nobody.
	got, _ = s.ListUsers(ctx, &user.ListFilter{Where: []access.Filter{access.Eq(access.FieldOwner, a.ID.String())}})
	if len(got) != 0 {
		t.Fatalf("expected no users, got %d", len(got))
	}
	n, _ := s.CountUsers(ctx, &user.ListFilter{Search: "bob"})
	if n != 1 {
		t.Fatalf("expected 1, got %d", n)
	}
}

func TestCheckLogs(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	old := &checklog.Entry{ID: id.NewCheckLogID(), List: "Shop", Decision: "deny", CreatedAt: now.Add(-time.Hour)}
	recent := &checklog.Entry{ID: id.NewCheckLogID(), List: "Shop", Decision: "allow", CreatedAt: now}
	_ = s.CreateCheckLog(ctx, old)
	_ = s.CreateCheckLog(ctx, recent)

	list, _ := s.ListCheckLogs(ctx, nil)
	if len(list) != 2 || list[0].ID != recent.ID {
		t.Fatal("expected newest first")
	}
	n, _ := s.CountCheckLogs(ctx, &checklog.QueryFilter{Decision: "deny"})
	if n != 1 {
		t.Fatalf("expected 1 deny, got %d", n)
	}

	purged, err := s.PurgeCheckLogs(ctx, now.Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged, got %d", purged)
	}
	if _, err := s.GetCheckLog(ctx, old.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
