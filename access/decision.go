package access

import "fmt"

// Field names a resource attribute a Filter can constrain.
type Field string

const (
	// FieldID is the record's own identifier.
	FieldID Field = "id"

	// FieldOwner is the identifier of the user that owns the record.
	FieldOwner Field = "owner_id"
)

// Filter is an equality constraint over a resource attribute.
type Filter struct {
	Field Field  `json:"field"`
	Value string `json:"value"`
}

// Eq returns a filter requiring field to equal value.
func Eq(field Field, value string) Filter {
	return Filter{Field: field, Value: value}
}

// String renders the filter as "field = value".
func (f Filter) String() string {
	return fmt.Sprintf("%s = %q", f.Field, f.Value)
}

// Record exposes the attributes a Filter can be evaluated against.
type Record interface {
	// AccessField returns the value of an attribute and whether the
	// record carries it at all.
	AccessField(field Field) (string, bool)
}

// Matches reports whether the record satisfies the filter. A record that
// does not carry the field never matches.
func (f Filter) Matches(r Record) bool {
	if r == nil {
		return false
	}
	v, ok := r.AccessField(f.Field)
	return ok && v == f.Value
}

// Kind is the tag of a Decision.
type Kind string

const (
	// KindDeny rejects the operation.
	KindDeny Kind = "deny"

	// KindAllow permits the operation on every record.
	KindAllow Kind = "allow"

	// KindAllowIf permits the operation on records matching the filter.
	KindAllowIf Kind = "allow_if"
)

// Decision is the outcome of an access check. The zero value is Deny.
// Decisions are comparable, so two evaluations can be checked with ==.
type Decision struct {
	kind   Kind
	filter Filter
}

var (
	// Allow permits the operation unconditionally.
	Allow = Decision{kind: KindAllow}

	// Deny rejects the operation.
	Deny = Decision{}
)

// AllowIf permits the operation on records matching f.
func AllowIf(f Filter) Decision {
	return Decision{kind: KindAllowIf, filter: f}
}

// Kind returns the decision tag.
func (d Decision) Kind() Kind {
	if d.kind == "" {
		return KindDeny
	}
	return d.kind
}

// IsAllow reports whether the decision is an unconditional Allow.
func (d Decision) IsAllow() bool { return d.kind == KindAllow }

// IsDeny reports whether the decision is Deny.
func (d Decision) IsDeny() bool { return d.Kind() == KindDeny }

// Filter returns the row filter of an AllowIf decision.
func (d Decision) Filter() (Filter, bool) {
	if d.kind != KindAllowIf {
		return Filter{}, false
	}
	return d.filter, true
}

// Permits applies the decision to a concrete record.
func (d Decision) Permits(r Record) bool {
	switch d.Kind() {
	case KindAllow:
		return true
	case KindAllowIf:
		return d.filter.Matches(r)
	default:
		return false
	}
}

// Reduce collapses AllowIf against a concrete record into Allow or Deny.
func (d Decision) Reduce(r Record) Decision {
	if d.Permits(r) {
		return Allow
	}
	return Deny
}

func (d Decision) String() string {
	switch d.Kind() {
	case KindAllow:
		return "allow"
	case KindAllowIf:
		return "allow_if(" + d.filter.String() + ")"
	default:
		return "deny"
	}
}

// Or composes two decisions: an Allow on the left short-circuits to
// Allow, otherwise the right operand is returned unchanged.
func Or(first, second Decision) Decision {
	if first.IsAllow() {
		return Allow
	}
	return second
}

// FromBool lifts a boolean predicate result into Allow or Deny.
func FromBool(ok bool) Decision {
	if ok {
		return Allow
	}
	return Deny
}
