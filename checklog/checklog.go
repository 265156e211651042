// Package checklog defines the access check audit Entry entity.
package checklog

import (
	"time"

	"github.com/xraph/keeper/id"
)

// Entry is a single access check audit record.
type Entry struct {
	ID         id.CheckLogID `json:"id" db:"id"`
	SubjectID  string        `json:"subject_id,omitempty" db:"subject_id"`
	Anonymous  bool          `json:"anonymous" db:"anonymous"`
	Operation  string        `json:"operation" db:"operation"`
	List       string        `json:"list" db:"list"`
	ResourceID string        `json:"resource_id,omitempty" db:"resource_id"`
	Decision   string        `json:"decision" db:"decision"`
	Filter     string        `json:"filter,omitempty" db:"filter"`
	Reason     string        `json:"reason,omitempty" db:"reason"`
	EvalTimeNs int64         `json:"eval_time_ns" db:"eval_time_ns"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying check logs.
type QueryFilter struct {
	SubjectID string     `json:"subject_id,omitempty"`
	Operation string     `json:"operation,omitempty"`
	List      string     `json:"list,omitempty"`
	Decision  string     `json:"decision,omitempty"`
	After     *time.Time `json:"after,omitempty"`
	Before    *time.Time `json:"before,omitempty"`
	Limit     int        `json:"limit,omitempty"`
	Offset    int        `json:"offset,omitempty"`
}

// Matches reports whether e satisfies the filter.
func (f *QueryFilter) Matches(e *Entry) bool {
	if f == nil {
		return true
	}
	switch {
	case f.SubjectID != "" && e.SubjectID != f.SubjectID,
		f.Operation != "" && e.Operation != f.Operation,
		f.List != "" && e.List != f.List,
		f.Decision != "" && e.Decision != f.Decision,
		f.After != nil && e.CreatedAt.Before(*f.After),
		f.Before != nil && e.CreatedAt.After(*f.Before):
		return false
	}
	return true
}
