package schema

import (
	"fmt"
	"strings"
)

// FieldType is the semantic type of a list field.
type FieldType string

const (
	// Text is a free-form string.
	Text FieldType = "Text"

	// Integer is a whole number.
	Integer FieldType = "Integer"

	// Float is a floating point number.
	Float FieldType = "Float"

	// Checkbox is a boolean flag.
	Checkbox FieldType = "Checkbox"

	// DateTime is an RFC 3339 timestamp.
	DateTime FieldType = "DateTime"

	// Select is one value out of a fixed set of options.
	Select FieldType = "Select"

	// Password is a write-only secret stored as a hash.
	Password FieldType = "Password"

	// Relationship references records of another list.
	Relationship FieldType = "Relationship"
)

func (t FieldType) valid() bool {
	switch t {
	case Text, Integer, Float, Checkbox, DateTime, Select, Password, Relationship:
		return true
	}
	return false
}

// Field declares one field of a list.
type Field struct {
	Name       string    `json:"name"`
	Type       FieldType `json:"type"`
	IsUnique   bool      `json:"is_unique,omitempty"`
	IsRequired bool      `json:"is_required,omitempty"`

	// Options holds the allowed values of a Select field.
	Options []string `json:"options,omitempty"`

	// Ref is the target of a Relationship: "List" for a one-sided
	// reference, "List.field" for a two-sided one.
	Ref string `json:"ref,omitempty"`

	// Many marks a Relationship holding a list of references.
	Many bool `json:"many,omitempty"`

	// Derived marks the many side of a two-sided relationship. Its value is
	// maintained from the forward side and cannot be written. The registry
	// sets it during validation.
	Derived bool `json:"derived,omitempty"`
}

// RefList returns the list a Relationship points at.
func (f Field) RefList() string {
	list, _, _ := strings.Cut(f.Ref, ".")
	return list
}

// RefField returns the back-reference field of a two-sided Relationship.
func (f Field) RefField() string {
	_, field, _ := strings.Cut(f.Ref, ".")
	return field
}

func (f Field) validate() error {
	if f.Name == "" {
		return fmt.Errorf("%w: field name is required", ErrInvalidList)
	}
	if !f.Type.valid() {
		return fmt.Errorf("%w: field %q has unknown type %q", ErrInvalidList, f.Name, f.Type)
	}
	if f.Type == Select && len(f.Options) == 0 {
		return fmt.Errorf("%w: select field %q has no options", ErrInvalidList, f.Name)
	}
	if f.Type == Relationship && f.RefList() == "" {
		return fmt.Errorf("%w: relationship field %q has no ref", ErrInvalidList, f.Name)
	}
	if f.Type != Relationship && (f.Ref != "" || f.Many) {
		return fmt.Errorf("%w: field %q sets ref or many without being a relationship", ErrInvalidList, f.Name)
	}
	return nil
}
