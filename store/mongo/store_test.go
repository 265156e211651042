package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/keeper/access"
	"github.com/xraph/keeper/item"
	"github.com/xraph/keeper/user"
)

func TestItemFilter(t *testing.T) {
	f := itemFilter(&item.ListFilter{
		List:   "Shop",
		Where:  []access.Filter{{Field: access.FieldID, Value: "itm_1"}},
		Search: "a.b",
	})
	if f["list"] != "Shop" || f["_id"] != "itm_1" {
		t.Errorf("unexpected filter: %v", f)
	}
	label, ok := f["label"].(bson.M)
	if !ok || label["$regex"] != `a\.b` {
		t.Errorf("expected quoted label regex, got %v", f["label"])
	}
}

func TestItemFilterUnknownFieldMatchesNothing(t *testing.T) {
	f := itemFilter(&item.ListFilter{Where: []access.Filter{{Field: "color", Value: "red"}}})
	if _, ok := f["_id"]; !ok || len(f) != 1 {
		t.Errorf("expected none filter, got %v", f)
	}
}

func TestUserFilterOwnerMatchesNothing(t *testing.T) {
	f := userFilter(&user.ListFilter{Where: []access.Filter{{Field: access.FieldOwner, Value: "usr_1"}}})
	id, ok := f["_id"].(bson.M)
	if !ok || id["$exists"] != false {
		t.Errorf("expected none filter, got %v", f)
	}
}

func TestFromBSON(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int // length of result slice, -1 for scalar
		str  bool
	}{
		{"scalar", "x", -1, false},
		{"strings", bson.A{"a", "b"}, 2, true},
		{"mixed", bson.A{"a", int32(1)}, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fromBSON(tt.in)
			switch v := got.(type) {
			case []string:
				if !tt.str || len(v) != tt.want {
					t.Errorf("fromBSON() = %v", v)
				}
			case []any:
				if tt.str || len(v) != tt.want {
					t.Errorf("fromBSON() = %v", v)
				}
			default:
				if tt.want != -1 {
					t.Errorf("fromBSON() = %v", v)
				}
			}
		})
	}
}
