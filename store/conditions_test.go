package store

import (
	"testing"
	"time"

	"github.com/xraph/keeper/access"
	"github.com/xraph/keeper/checklog"
	"github.com/xraph/keeper/item"
	"github.com/xraph/keeper/user"
)

func exprs(cs []Condition) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Expr
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestItemConditions(t *testing.T) {
	tests := []struct {
		name   string
		filter *item.ListFilter
		want   []string
	}{
		{"nil", nil, nil},
		{"list only", &item.ListFilter{List: "Shop"}, []string{"list = ?"}},
		{
			"owner and search",
			&item.ListFilter{
				List:   "Shop",
				Where:  []access.Filter{{Field: access.FieldOwner, Value: "usr_1"}},
				Search: "Cafe",
			},
			[]string{"list = ?", "owner_id = ?", "LOWER(label) LIKE ?"},
		},
		{
			"unknown field",
			&item.ListFilter{List: "Shop", Where: []access.Filter{{Field: "color", Value: "red"}}},
			[]string{"1 = 0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exprs(ItemConditions(tt.filter))
			if !equal(got, tt.want) {
				t.Errorf("ItemConditions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestItemConditionsSearchIsLowered(t *testing.T) {
	cs := ItemConditions(&item.ListFilter{Search: "CaFe"})
	if len(cs) != 1 || cs[0].Args[0] != "%cafe%" {
		t.Errorf("unexpected search condition: %+v", cs)
	}
}

func TestUserConditions(t *testing.T) {
	tests := []struct {
		name   string
		filter *user.ListFilter
		want   []string
	}{
		{"nil", nil, nil},
		{
			"id",
			&user.ListFilter{Where: []access.Filter{{Field: access.FieldID, Value: "usr_1"}}},
			[]string{"id = ?"},
		},
		{
			"owner matches nothing",
			&user.ListFilter{Where: []access.Filter{{Field: access.FieldOwner, Value: "usr_1"}}},
			[]string{"1 = 0"},
		},
		{
			"search",
			&user.ListFilter{Search: "ann"},
			[]string{"(LOWER(name) LIKE ? OR email LIKE ?)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exprs(UserConditions(tt.filter))
			if !equal(got, tt.want) {
				t.Errorf("UserConditions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckLogConditions(t *testing.T) {
	now := time.Now()
	got := exprs(CheckLogConditions(&checklog.QueryFilter{
		SubjectID: "usr_1",
		Decision:  "deny",
		After:     &now,
		Before:    &now,
	}))
	want := []string{"subject_id = ?", "decision = ?", "created_at >= ?", "created_at <= ?"}
	if !equal(got, want) {
		t.Errorf("CheckLogConditions() = %v, want %v", got, want)
	}
}

func TestWhereColumn(t *testing.T) {
	if col, ok := WhereColumn(access.FieldID); !ok || col != "id" {
		t.Errorf("WhereColumn(id) = %q, %v", col, ok)
	}
	if col, ok := WhereColumn(access.FieldOwner); !ok || col != "owner_id" {
		t.Errorf("WhereColumn(owner) = %q, %v", col, ok)
	}
	if _, ok := WhereColumn("label"); ok {
		t.Error("expected label to have no where column")
	}
}
