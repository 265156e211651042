package sqlite

import (
	"errors"
	"testing"

	"github.com/xraph/keeper/item"
	"github.com/xraph/keeper/store"
	"github.com/xraph/keeper/user"
)

type fakeResult struct {
	n   int64
	err error
}

func (r fakeResult) RowsAffected() (int64, error) { return r.n, r.err }

func TestAffected(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		res  fakeResult
		want error
	}{
		{"one row", fakeResult{n: 1}, nil},
		{"no rows", fakeResult{}, store.ErrNotFound},
		{"rows error", fakeResult{err: boom}, boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := affected(tt.res, "thing")
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("affected() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(errors.New("UNIQUE constraint failed: keeper_users.email")) {
		t.Error("expected unique violation")
	}
	if isUniqueViolation(errors.New("no such table")) || isUniqueViolation(nil) {
		t.Error("unexpected unique violation")
	}
}

func TestItemModelRoundTripsFields(t *testing.T) {
	it := &item.Item{List: "Shop", Label: "Corner", Fields: map[string]any{"name": "Corner", "channels": []string{"chn_1"}}}
	m, err := itemToModel(it)
	if err != nil {
		t.Fatal(err)
	}
	got, err := itemFromModel(m)
	if err != nil {
		t.Fatal(err)
	}
	if got.Fields["name"] != "Corner" {
		t.Errorf("name = %v", got.Fields["name"])
	}
	if refs, ok := got.Fields["channels"].([]any); !ok || len(refs) != 1 || refs[0] != "chn_1" {
		t.Errorf("channels = %#v", got.Fields["channels"])
	}
}

func TestUserModelEmptyEmailIsNull(t *testing.T) {
	if m := userToModel(&user.User{Name: "anon"}); m.Email != nil {
		t.Errorf("expected NULL email, got %q", *m.Email)
	}
	m := userToModel(&user.User{Email: " Ann@Example.com "})
	if m.Email == nil || *m.Email != user.NormalizeEmail(" Ann@Example.com ") {
		t.Errorf("unexpected email %v", m.Email)
	}
}
