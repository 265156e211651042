// Package schema declares keeper lists: their fields, relationships,
// label rules and access tables. A Registry validates declarations when
// they are registered so that configuration errors surface at startup.
package schema

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/xraph/keeper/access"
)

const (
	// UserList is the name of the list backing authentication.
	UserList = "User"

	// OwnerField is the relationship through which ownable records name
	// their owning user.
	OwnerField = "user"
)

// List declares a list of records.
type List struct {
	Name string `json:"name"`

	// Label is a static display label for every record of the list.
	Label string `json:"label,omitempty"`

	// LabelField names the field whose value labels a record.
	LabelField string `json:"label_field,omitempty"`

	// Ownable marks lists whose records carry an owner reference.
	Ownable bool `json:"ownable"`

	Fields []Field `json:"fields"`

	// Access assigns a rule to each operation.
	Access access.Table `json:"-"`
}

// Field returns the field with the given name.
func (l *List) Field(name string) (Field, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Relationships returns the relationship fields of the list.
func (l *List) Relationships() []Field {
	var out []Field
	for _, f := range l.Fields {
		if f.Type == Relationship {
			out = append(out, f)
		}
	}
	return out
}

// LabelFor resolves the display label of a record.
func (l *List) LabelFor(recordID string, fields map[string]any) string {
	if l.LabelField != "" {
		if v, ok := fields[l.LabelField]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	if l.Label != "" {
		return l.Label
	}
	return recordID
}

// Normalize validates submitted values and returns a normalized copy.
// With partial set, required fields may be absent (updates). Numbers are
// converted to int64 or float64, timestamps to UTC RFC 3339 strings and
// many-relationships to []string. A nil value clears a field.
func (l *List) Normalize(fields map[string]any, partial bool) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for name, v := range fields {
		f, ok := l.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, l.Name, name)
		}
		if f.Derived {
			return nil, fmt.Errorf("%w: %s.%s", ErrReadOnlyField, l.Name, name)
		}
		if v == nil {
			if f.IsRequired {
				return nil, fmt.Errorf("%w: %s.%s", ErrRequiredField, l.Name, name)
			}
			out[name] = nil
			continue
		}
		nv, err := normalizeValue(f, v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %w", ErrInvalidValue, l.Name, name, err)
		}
		out[name] = nv
	}
	if !partial {
		for _, f := range l.Fields {
			if !f.IsRequired {
				continue
			}
			if _, ok := out[f.Name]; !ok {
				return nil, fmt.Errorf("%w: %s.%s", ErrRequiredField, l.Name, f.Name)
			}
		}
	}
	return out, nil
}

func normalizeValue(f Field, v any) (any, error) {
	switch f.Type {
	case Text, Password:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	case Checkbox:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return b, nil
	case Integer:
		return toInteger(v)
	case Float:
		n, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("expected number, got %T", v)
		}
		return n, nil
	case DateTime:
		switch t := v.(type) {
		case time.Time:
			return t.UTC().Format(time.RFC3339Nano), nil
		case string:
			parsed, err := time.Parse(time.RFC3339, t)
			if err != nil {
				return nil, err
			}
			return parsed.UTC().Format(time.RFC3339Nano), nil
		}
		return nil, fmt.Errorf("expected timestamp, got %T", v)
	case Select:
		s, ok := v.(string)
		if !ok || !slices.Contains(f.Options, s) {
			return nil, fmt.Errorf("expected one of %v, got %v", f.Options, v)
		}
		return s, nil
	case Relationship:
		if f.Many {
			ids, ok := refIDs(v)
			if !ok {
				return nil, fmt.Errorf("expected list of ids, got %T", v)
			}
			return ids, nil
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("expected id, got %v", v)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unsupported type %s", f.Type)
}

// RefIDs extracts referenced IDs from a stored relationship value. It
// accepts a single ID, []string or the []any produced by JSON decoding.
func RefIDs(v any) []string {
	if s, ok := v.(string); ok {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	ids, _ := refIDs(v)
	return ids
}

func refIDs(v any) ([]string, bool) {
	switch ids := v.(type) {
	case []string:
		return slices.Clone(ids), true
	case []any:
		out := make([]string, 0, len(ids))
		for _, item := range ids {
			s, ok := item.(string)
			if !ok || s == "" {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// maxSafeInteger is the largest magnitude a JSON number carries exactly.
const maxSafeInteger = 1 << 53

func toInteger(v any) (any, error) {
	switch n := v.(type) {
	case int:
		v = int64(n)
	case int32:
		v = int64(n)
	}
	if n, ok := v.(int64); ok {
		if n > maxSafeInteger || n < -maxSafeInteger {
			return nil, fmt.Errorf("integer %d out of range", n)
		}
		return n, nil
	}
	n, ok := toFloat(v)
	if !ok || n != math.Trunc(n) {
		return nil, fmt.Errorf("expected integer, got %v", v)
	}
	if math.Abs(n) > maxSafeInteger {
		return nil, fmt.Errorf("integer %v out of range", v)
	}
	return int64(n), nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
