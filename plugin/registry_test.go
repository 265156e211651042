package plugin

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/xraph/keeper/id"
	"github.com/xraph/keeper/item"
	"github.com/xraph/keeper/user"
)

// testPlugin implements Plugin + ItemCreated + AfterCheck + SignedIn.
type testPlugin struct {
	itemCreatedCalled bool
	afterCheckCalled  bool
	signedIn          []string
}

func (t *testPlugin) Name() string { return "test-plugin" }

func (t *testPlugin) OnItemCreated(_ context.Context, _ *item.Item) error {
	t.itemCreatedCalled = true
	return nil
}

func (t *testPlugin) OnAfterCheck(_ context.Context, _, _ any) error {
	t.afterCheckCalled = true
	return nil
}

func (t *testPlugin) OnSignedIn(_ context.Context, u *user.User) error {
	t.signedIn = append(t.signedIn, u.Name)
	return nil
}

// minimalPlugin only implements Plugin (no hooks).
type minimalPlugin struct{}

func (m *minimalPlugin) Name() string { return "minimal" }

// failingPlugin returns an error from its hook.
type failingPlugin struct{ calls int }

func (f *failingPlugin) Name() string { return "failing" }

func (f *failingPlugin) OnItemDeleted(_ context.Context, _ string, _ id.ItemID) error {
	f.calls++
	return errors.New("boom")
}

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	tp := &testPlugin{}
	reg.Register(tp)
	reg.Register(&minimalPlugin{})

	if len(reg.Plugins()) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(reg.Plugins()))
	}

	// Should dispatch ItemCreated to testPlugin only.
	reg.EmitItemCreated(ctx, &item.Item{ID: id.NewItemID(), List: "Shop"})
	if !tp.itemCreatedCalled {
		t.Fatal("OnItemCreated was not called")
	}

	// Should dispatch AfterCheck.
	reg.EmitAfterCheck(ctx, nil, nil)
	if !tp.afterCheckCalled {
		t.Fatal("OnAfterCheck was not called")
	}

	reg.EmitSignedIn(ctx, &user.User{Name: "ann"})
	if len(tp.signedIn) != 1 || tp.signedIn[0] != "ann" {
		t.Fatalf("unexpected sign-ins %v", tp.signedIn)
	}

	// Should not panic on hooks with no listeners.
	reg.EmitBeforeCheck(ctx, nil)
	reg.EmitUserDeleted(ctx, id.NewUserID())
	reg.EmitShutdown(ctx)
}

func TestRegistryHookErrorsAreSwallowed(t *testing.T) {
	reg := NewRegistry(nil)
	fp := &failingPlugin{}
	reg.Register(fp)

	reg.EmitItemDeleted(context.Background(), "Shop", id.NewItemID())
	reg.EmitItemDeleted(context.Background(), "Shop", id.NewItemID())
	if fp.calls != 2 {
		t.Fatalf("expected hook to keep firing after errors, got %d calls", fp.calls)
	}
}
