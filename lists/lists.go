// Package lists declares the keeper lists: users, shops and channels with
// their items, and the matches connecting them.
package lists

import (
	"github.com/xraph/keeper/access"
	"github.com/xraph/keeper/schema"
)

// List names.
const (
	User        = schema.UserList
	Shop        = "Shop"
	ShopItem    = "ShopItem"
	Channel     = "Channel"
	ChannelItem = "ChannelItem"
	Match       = "Match"
)

// Ownable lists every list whose records carry an owner.
var Ownable = []string{Shop, ShopItem, Channel, ChannelItem, Match}

// Options tune the declared lists.
type Options struct {
	// StrictCreate evaluates create on ownable lists through
	// IsAdministratorOrOwner instead of allowing it unconditionally.
	StrictCreate bool
}

// New builds a validated registry holding every keeper list.
func New(opts Options) (*schema.Registry, error) {
	reg := schema.NewRegistry()
	if err := Register(reg, opts); err != nil {
		return nil, err
	}
	return reg, nil
}

// Register adds every keeper list to reg and validates the result.
func Register(reg *schema.Registry, opts Options) error {
	ownable := access.OwnableTable()
	if opts.StrictCreate {
		ownable = access.StrictOwnableTable()
	}
	for _, l := range []*schema.List{
		userList(),
		shopList(ownable),
		shopItemList(ownable),
		channelList(ownable),
		channelItemList(ownable),
		matchList(ownable),
	} {
		if err := reg.Register(l); err != nil {
			return err
		}
	}
	return reg.Validate()
}

func owner() schema.Field {
	return schema.Field{Name: schema.OwnerField, Type: schema.Relationship, Ref: User}
}

func userList() *schema.List {
	return &schema.List{
		Name:       User,
		LabelField: "name",
		Fields: []schema.Field{
			{Name: "name", Type: schema.Text},
			{Name: "email", Type: schema.Text, IsUnique: true},
			{Name: "password", Type: schema.Password, IsRequired: true},
			{Name: "isAdmin", Type: schema.Checkbox},
		},
		Access: access.UserTable(),
	}
}

func shopList(t access.Table) *schema.List {
	return &schema.List{
		Name:       Shop,
		LabelField: "name",
		Ownable:    true,
		Fields: []schema.Field{
			{Name: "name", Type: schema.Text},
			owner(),
			{Name: "shopItems", Type: schema.Relationship, Ref: ShopItem + ".shop", Many: true},
		},
		Access: t,
	}
}

func shopItemList(t access.Table) *schema.List {
	return &schema.List{
		Name:       ShopItem,
		LabelField: "pId",
		Ownable:    true,
		Fields: []schema.Field{
			{Name: "pId", Type: schema.Text},
			{Name: "vId", Type: schema.Text},
			{Name: "quantity", Type: schema.Float},
			{Name: "shop", Type: schema.Relationship, Ref: Shop + ".shopItems"},
			owner(),
		},
		Access: t,
	}
}

func channelList(t access.Table) *schema.List {
	return &schema.List{
		Name:       Channel,
		LabelField: "name",
		Ownable:    true,
		Fields: []schema.Field{
			{Name: "settings", Type: schema.Text},
			{Name: "name", Type: schema.Text},
			owner(),
			{Name: "channelItems", Type: schema.Relationship, Ref: ChannelItem + ".channel", Many: true},
		},
		Access: t,
	}
}

func channelItemList(t access.Table) *schema.List {
	return &schema.List{
		Name:       ChannelItem,
		LabelField: "pId",
		Ownable:    true,
		Fields: []schema.Field{
			{Name: "pId", Type: schema.Text},
			{Name: "vId", Type: schema.Text},
			{Name: "quantity", Type: schema.Float},
			{Name: "channel", Type: schema.Relationship, Ref: Channel + ".channelItems"},
			owner(),
		},
		Access: t,
	}
}

func matchList(t access.Table) *schema.List {
	return &schema.List{
		Name:    Match,
		Label:   "Match",
		Ownable: true,
		Fields: []schema.Field{
			{Name: "input", Type: schema.Relationship, Ref: ShopItem, Many: true},
			{Name: "output", Type: schema.Relationship, Ref: ChannelItem, Many: true},
			owner(),
		},
		Access: t,
	}
}
