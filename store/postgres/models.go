package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/keeper/checklog"
	"github.com/xraph/keeper/id"
	"github.com/xraph/keeper/item"
	"github.com/xraph/keeper/user"
)

// ──────────────────────────────────────────────────
// Item model
// ──────────────────────────────────────────────────

type itemModel struct {
	grove.BaseModel `grove:"table:keeper_items"`
	ID              string         `grove:"id,pk"`
	List            string         `grove:"list,notnull"`
	OwnerID         string         `grove:"owner_id,notnull"`
	Label           string         `grove:"label,notnull"`
	Fields          map[string]any `grove:"fields,type:jsonb"`
	CreatedAt       time.Time      `grove:"created_at,notnull"`
	UpdatedAt       time.Time      `grove:"updated_at,notnull"`
}

func itemToModel(it *item.Item) *itemModel {
	fields := it.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	return &itemModel{
		ID:        it.ID.String(),
		List:      it.List,
		OwnerID:   it.OwnerID,
		Label:     it.Label,
		Fields:    fields,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

func itemFromModel(m *itemModel) *item.Item {
	iid, _ := id.ParseItemID(m.ID) //nolint:errcheck // stored IDs are always valid
	it := &item.Item{
		ID:        iid,
		List:      m.List,
		OwnerID:   m.OwnerID,
		Label:     m.Label,
		Fields:    m.Fields,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if it.Fields == nil {
		it.Fields = make(map[string]any)
	}
	return it
}

// ──────────────────────────────────────────────────
// User model
// ──────────────────────────────────────────────────

type userModel struct {
	grove.BaseModel `grove:"table:keeper_users"`
	ID              string    `grove:"id,pk"`
	Name            string    `grove:"name,notnull"`
	Email           *string   `grove:"email"` // NULL when unset so the unique index ignores it
	PasswordHash    string    `grove:"password_hash,notnull"`
	IsAdmin         bool      `grove:"is_admin,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func userToModel(u *user.User) *userModel {
	m := &userModel{
		ID:           u.ID.String(),
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		IsAdmin:      u.IsAdmin,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if email := user.NormalizeEmail(u.Email); email != "" {
		m.Email = &email
	}
	return m
}

func userFromModel(m *userModel) *user.User {
	uid, _ := id.ParseUserID(m.ID) //nolint:errcheck // stored IDs are always valid
	u := &user.User{
		ID:           uid,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		IsAdmin:      m.IsAdmin,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.Email != nil {
		u.Email = *m.Email
	}
	return u
}

// ──────────────────────────────────────────────────
// Check log model
// ──────────────────────────────────────────────────

type checkLogModel struct {
	grove.BaseModel `grove:"table:keeper_check_logs"`
	ID              string    `grove:"id,pk"`
	SubjectID       string    `grove:"subject_id,notnull"`
	Anonymous       bool      `grove:"anonymous,notnull"`
	Operation       string    `grove:"operation,notnull"`
	List            string    `grove:"list,notnull"`
	ResourceID      string    `grove:"resource_id,notnull"`
	Decision        string    `grove:"decision,notnull"`
	Filter          string    `grove:"filter,notnull"`
	Reason          string    `grove:"reason,notnull"`
	EvalTimeNs      int64     `grove:"eval_time_ns,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func checkLogToModel(e *checklog.Entry) *checkLogModel {
	return &checkLogModel{
		ID:         e.ID.String(),
		SubjectID:  e.SubjectID,
		Anonymous:  e.Anonymous,
		Operation:  e.Operation,
		List:       e.List,
		ResourceID: e.ResourceID,
		Decision:   e.Decision,
		Filter:     e.Filter,
		Reason:     e.Reason,
		EvalTimeNs: e.EvalTimeNs,
		CreatedAt:  e.CreatedAt,
	}
}

func checkLogFromModel(m *checkLogModel) *checklog.Entry {
	lid, _ := id.ParseCheckLogID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &checklog.Entry{
		ID:         lid,
		SubjectID:  m.SubjectID,
		Anonymous:  m.Anonymous,
		Operation:  m.Operation,
		List:       m.List,
		ResourceID: m.ResourceID,
		Decision:   m.Decision,
		Filter:     m.Filter,
		Reason:     m.Reason,
		EvalTimeNs: m.EvalTimeNs,
		CreatedAt:  m.CreatedAt,
	}
}
