package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

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
	ID              string         `grove:"id,pk"           bson:"_id"`
	List            string         `grove:"list"            bson:"list"`
	OwnerID         string         `grove:"owner_id"        bson:"owner_id"`
	Label           string         `grove:"label"           bson:"label"`
	Fields          map[string]any `grove:"fields"          bson:"fields,omitempty"`
	CreatedAt       time.Time      `grove:"created_at"      bson:"created_at"`
	UpdatedAt       time.Time      `grove:"updated_at"      bson:"updated_at"`
}

func itemToModel(it *item.Item) *itemModel {
	return &itemModel{
		ID:        it.ID.String(),
		List:      it.List,
		OwnerID:   it.OwnerID,
		Label:     it.Label,
		Fields:    it.Fields,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

func itemFromModel(m *itemModel) *item.Item {
	iid, _ := id.ParseItemID(m.ID) //nolint:errcheck // stored IDs are always valid
	fields := make(map[string]any, len(m.Fields))
	for k, v := range m.Fields {
		fields[k] = fromBSON(v)
	}
	return &item.Item{
		ID:        iid,
		List:      m.List,
		OwnerID:   m.OwnerID,
		Label:     m.Label,
		Fields:    fields,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// fromBSON turns decoded arrays back into the []string form many
// relationships are written in.
func fromBSON(v any) any {
	arr, ok := v.(bson.A)
	if !ok {
		return v
	}
	ids := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := e.(string)
		if !ok {
			return []any(arr)
		}
		ids = append(ids, s)
	}
	return ids
}

// ──────────────────────────────────────────────────
// User model
// ──────────────────────────────────────────────────

type userModel struct {
	grove.BaseModel `grove:"table:keeper_users"`
	ID              string    `grove:"id,pk"           bson:"_id"`
	Name            string    `grove:"name"            bson:"name"`
	Email           string    `grove:"email"           bson:"email,omitempty"`
	PasswordHash    string    `grove:"password_hash"   bson:"password_hash"`
	IsAdmin         bool      `grove:"is_admin"        bson:"is_admin"`
	CreatedAt       time.Time `grove:"created_at"      bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"      bson:"updated_at"`
}

func userToModel(u *user.User) *userModel {
	return &userModel{
		ID:           u.ID.String(),
		Name:         u.Name,
		Email:        user.NormalizeEmail(u.Email),
		PasswordHash: u.PasswordHash,
		IsAdmin:      u.IsAdmin,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m *userModel) *user.User {
	uid, _ := id.ParseUserID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &user.User{
		ID:           uid,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		IsAdmin:      m.IsAdmin,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Check log model
// ──────────────────────────────────────────────────

type checkLogModel struct {
	grove.BaseModel `grove:"table:keeper_check_logs"`
	ID              string    `grove:"id,pk"           bson:"_id"`
	SubjectID       string    `grove:"subject_id"      bson:"subject_id"`
	Anonymous       bool      `grove:"anonymous"       bson:"anonymous"`
	Operation       string    `grove:"operation"       bson:"operation"`
	List            string    `grove:"list"            bson:"list"`
	ResourceID      string    `grove:"resource_id"     bson:"resource_id"`
	Decision        string    `grove:"decision"        bson:"decision"`
	Filter          string    `grove:"filter"          bson:"filter"`
	Reason          string    `grove:"reason"          bson:"reason"`
	EvalTimeNs      int64     `grove:"eval_time_ns"    bson:"eval_time_ns"`
	CreatedAt       time.Time `grove:"created_at"      bson:"created_at"`
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
