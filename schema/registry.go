package schema

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInvalidList is returned when a list declaration is malformed.
	ErrInvalidList = errors.New("schema: invalid list")

	// ErrDuplicateList is returned when a list name is registered twice.
	ErrDuplicateList = errors.New("schema: list already registered")

	// ErrListNotFound is returned for an unregistered list name.
	ErrListNotFound = errors.New("schema: list not found")

	// ErrUnknownField is returned when a write names an undeclared field.
	ErrUnknownField = errors.New("schema: unknown field")

	// ErrReadOnlyField is returned when a write targets a derived field.
	ErrReadOnlyField = errors.New("schema: field is read-only")

	// ErrRequiredField is returned when a required field is missing.
	ErrRequiredField = errors.New("schema: field is required")

	// ErrInvalidValue is returned when a value does not fit its field type.
	ErrInvalidValue = errors.New("schema: invalid value")
)

// Registry holds the registered lists in registration order.
type Registry struct {
	mu    sync.RWMutex
	lists map[string]*List
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{lists: make(map[string]*List)}
}

// Register validates a list on its own and adds it. Cross-list references
// are checked by Validate once every list is registered.
func (r *Registry) Register(l *List) error {
	if l == nil || l.Name == "" {
		return fmt.Errorf("%w: list name is required", ErrInvalidList)
	}
	seen := make(map[string]struct{}, len(l.Fields))
	for _, f := range l.Fields {
		if err := f.validate(); err != nil {
			return fmt.Errorf("list %s: %w", l.Name, err)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("list %s: %w: duplicate field %q", l.Name, ErrInvalidList, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	if err := l.Access.Validate(); err != nil {
		return fmt.Errorf("list %s: %w: %w", l.Name, ErrInvalidList, err)
	}
	if l.LabelField != "" {
		if _, ok := seen[l.LabelField]; !ok {
			return fmt.Errorf("list %s: %w: label field %q is not declared", l.Name, ErrInvalidList, l.LabelField)
		}
	}
	if l.Ownable {
		f, ok := l.Field(OwnerField)
		if !ok || f.Type != Relationship || f.RefList() != UserList || f.Many {
			return fmt.Errorf("list %s: %w: ownable lists need a single %q relationship to %s",
				l.Name, ErrInvalidList, OwnerField, UserList)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lists[l.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateList, l.Name)
	}
	r.lists[l.Name] = l
	r.order = append(r.order, l.Name)
	return nil
}

// Validate resolves relationship targets across the registry and marks the
// many side of every two-sided relationship as derived.
func (r *Registry) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lists[UserList]; !ok {
		return fmt.Errorf("%w: %s list is not registered", ErrInvalidList, UserList)
	}
	for _, name := range r.order {
		l := r.lists[name]
		for i, f := range l.Fields {
			if f.Type != Relationship {
				continue
			}
			target, ok := r.lists[f.RefList()]
			if !ok {
				return fmt.Errorf("list %s: %w: field %q references unknown list %q",
					l.Name, ErrInvalidList, f.Name, f.RefList())
			}
			back := f.RefField()
			if back == "" {
				continue
			}
			bf, ok := target.Field(back)
			if !ok || bf.Type != Relationship || bf.RefList() != l.Name || bf.RefField() != f.Name {
				return fmt.Errorf("list %s: %w: field %q expects %s.%s to point back",
					l.Name, ErrInvalidList, f.Name, target.Name, back)
			}
			if f.Many == bf.Many {
				return fmt.Errorf("list %s: %w: two-sided relationship %q must pair one and many",
					l.Name, ErrInvalidList, f.Name)
			}
			l.Fields[i].Derived = f.Many
		}
	}
	return nil
}

// Get returns the list with the given name.
func (r *Registry) Get(name string) (*List, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lists[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrListNotFound, name)
	}
	return l, nil
}

// Lists returns every registered list in registration order.
func (r *Registry) Lists() []*List {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*List, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.lists[name])
	}
	return out
}

// BackReferences returns the derived fields on other lists that mirror the
// given list's forward relationships, keyed by forward field name.
func (r *Registry) BackReferences(list string) map[string]Field {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lists[list]
	if !ok {
		return nil
	}
	out := make(map[string]Field)
	for _, f := range l.Fields {
		if f.Type != Relationship || f.Derived || f.RefField() == "" {
			continue
		}
		target := r.lists[f.RefList()]
		if target == nil {
			continue
		}
		if bf, ok := target.Field(f.RefField()); ok && bf.Derived {
			out[f.Name] = bf
		}
	}
	return out
}
