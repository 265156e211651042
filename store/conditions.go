package store

import (
	"strings"

	"github.com/xraph/keeper/checklog"
	"github.com/xraph/keeper/item"
	"github.com/xraph/keeper/user"
)

// Condition is one SQL WHERE clause with its placeholder arguments. The
// SQL backends apply the conditions of a filter to both list and count
// queries.
type Condition struct {
	Expr string
	Args []any
}

func cond(expr string, args ...any) Condition {
	return Condition{Expr: expr, Args: args}
}

// never matches no row. It stands in for a filter on a field that has no
// column.
var never = cond("1 = 0")

func like(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

// ItemConditions translates an item filter into WHERE clauses.
func ItemConditions(f *item.ListFilter) []Condition {
	if f == nil {
		return nil
	}
	var out []Condition
	if f.List != "" {
		out = append(out, cond("list = ?", f.List))
	}
	for _, w := range f.Where {
		col, ok := WhereColumn(w.Field)
		if !ok {
			return []Condition{never}
		}
		out = append(out, cond(col+" = ?", w.Value))
	}
	if f.Search != "" {
		out = append(out, cond("LOWER(label) LIKE ?", like(f.Search)))
	}
	return out
}

// UserConditions translates a user filter into WHERE clauses. Users carry
// no owner, so an owner constraint matches nothing.
func UserConditions(f *user.ListFilter) []Condition {
	if f == nil {
		return nil
	}
	var out []Condition
	for _, w := range f.Where {
		col, ok := WhereColumn(w.Field)
		if !ok || col != "id" {
			return []Condition{never}
		}
		out = append(out, cond("id = ?", w.Value))
	}
	if f.Search != "" {
		q := like(f.Search)
		out = append(out, cond("(LOWER(name) LIKE ? OR email LIKE ?)", q, q))
	}
	return out
}

// CheckLogConditions translates a check log filter into WHERE clauses.
func CheckLogConditions(f *checklog.QueryFilter) []Condition {
	if f == nil {
		return nil
	}
	var out []Condition
	if f.SubjectID != "" {
		out = append(out, cond("subject_id = ?", f.SubjectID))
	}
	if f.Operation != "" {
		out = append(out, cond("operation = ?", f.Operation))
	}
	if f.List != "" {
		out = append(out, cond("list = ?", f.List))
	}
	if f.Decision != "" {
		out = append(out, cond("decision = ?", f.Decision))
	}
	if f.After != nil {
		out = append(out, cond("created_at >= ?", *f.After))
	}
	if f.Before != nil {
		out = append(out, cond("created_at <= ?", *f.Before))
	}
	return out
}
