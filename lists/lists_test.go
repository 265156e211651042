package lists

import (
	"testing"

	"github.com/xraph/keeper/access"
)

func TestNewRegistersEveryList(t *testing.T) {
	reg, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{User, Shop, ShopItem, Channel, ChannelItem, Match}
	got := reg.Lists()
	if len(got) != len(want) {
		t.Fatalf("expected %d lists, got %d", len(want), len(got))
	}
	for i, l := range got {
		if l.Name != want[i] {
			t.Fatalf("list %d: expected %s, got %s", i, want[i], l.Name)
		}
	}
}

func TestDerivedBackReferences(t *testing.T) {
	reg, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	shop, _ := reg.Get(Shop)
	f, _ := shop.Field("shopItems")
	if !f.Derived {
		t.Fatal("Shop.shopItems should be derived from ShopItem.shop")
	}
	channel, _ := reg.Get(Channel)
	f, _ = channel.Field("channelItems")
	if !f.Derived {
		t.Fatal("Channel.channelItems should be derived from ChannelItem.channel")
	}
	match, _ := reg.Get(Match)
	f, _ = match.Field("input")
	if f.Derived {
		t.Fatal("Match.input is one-sided and must be stored")
	}
}

func TestAccessAssignment(t *testing.T) {
	reg, _ := New(Options{})
	u1 := &access.Subject{ID: "u1"}

	user, _ := reg.Get(User)
	if d, _ := user.Access.Evaluate(nil, access.OpCreate); d != access.Allow {
		t.Fatalf("User create: expected allow, got %s", d)
	}
	if d, _ := user.Access.Evaluate(u1, access.OpDelete); d != access.Deny {
		t.Fatalf("User delete by non-admin: expected deny, got %s", d)
	}

	for _, name := range Ownable {
		l, _ := reg.Get(name)
		if !l.Ownable {
			t.Fatalf("%s should be ownable", name)
		}
		if d, _ := l.Access.Evaluate(nil, access.OpCreate); d != access.Allow {
			t.Fatalf("%s create: expected unconditional allow, got %s", name, d)
		}
		for _, op := range []access.Operation{access.OpRead, access.OpUpdate, access.OpDelete} {
			d, _ := l.Access.Evaluate(u1, op)
			if d != access.AllowIf(access.Eq(access.FieldOwner, "u1")) {
				t.Fatalf("%s %s: expected owner filter, got %s", name, op, d)
			}
		}
	}
}

func TestStrictCreate(t *testing.T) {
	reg, err := New(Options{StrictCreate: true})
	if err != nil {
		t.Fatal(err)
	}
	shop, _ := reg.Get(Shop)
	if d, _ := shop.Access.Evaluate(nil, access.OpCreate); d != access.Deny {
		t.Fatalf("strict anonymous create: expected deny, got %s", d)
	}
	user, _ := reg.Get(User)
	if d, _ := user.Access.Evaluate(nil, access.OpCreate); d != access.Allow {
		t.Fatalf("strict mode must keep User signup open, got %s", d)
	}
}
