// Package schema holds the user-defined extraction schema and the editor that
// mutates it.
package schema

import (
	"fmt"
	"strings"
)

// FieldType is the value type the extraction service should produce for a field.
type FieldType string

const (
	TypeString  FieldType = "STRING"
	TypeNumber  FieldType = "NUMBER"
	TypeBoolean FieldType = "BOOLEAN"
	TypeArray   FieldType = "ARRAY"
)

// FieldTypes lists every field type in display order.
var FieldTypes = []FieldType{TypeString, TypeNumber, TypeBoolean, TypeArray}

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	for _, ft := range FieldTypes {
		if t == ft {
			return true
		}
	}
	return false
}

// ParseFieldType parses a field type name in any letter case.
func ParseFieldType(s string) (FieldType, error) {
	t := FieldType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown field type %q", s)
	}
	return t, nil
}

// Field is one entry of the schema.
// ItemsStructure is non-nil exactly when Type is TypeArray.
type Field struct {
	ID             string          `json:"id" yaml:"id,omitempty"`
	Key            string          `json:"key" yaml:"key"`
	Description    string          `json:"description" yaml:"description"`
	Type           FieldType       `json:"type" yaml:"type"`
	Required       bool            `json:"required" yaml:"required"`
	ItemsStructure *ItemsStructure `json:"items_structure,omitempty" yaml:"items_structure,omitempty"`
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	if f.ItemsStructure != nil {
		f.ItemsStructure = f.ItemsStructure.Clone()
	}
	return f
}

// IsArray reports whether the field describes a list of objects.
func (f Field) IsArray() bool {
	return f.Type == TypeArray
}

// FieldUpdate is a partial update for UpdateField. Nil attributes are left
// unchanged.
type FieldUpdate struct {
	Key         *string
	Description *string
	Type        *FieldType
	Required    *bool
}

// SetKey returns an update that only changes the key.
func SetKey(key string) FieldUpdate { return FieldUpdate{Key: &key} }

// SetDescription returns an update that only changes the description.
func SetDescription(desc string) FieldUpdate { return FieldUpdate{Description: &desc} }

// SetType returns an update that only changes the type.
func SetType(t FieldType) FieldUpdate { return FieldUpdate{Type: &t} }

// SetRequired returns an update that only changes the required flag.
func SetRequired(required bool) FieldUpdate { return FieldUpdate{Required: &required} }

// apply merges u into f and keeps the type/items pairing intact.
func (u FieldUpdate) apply(f *Field) {
	if u.Key != nil {
		f.Key = *u.Key
	}
	if u.Description != nil {
		f.Description = *u.Description
	}
	if u.Required != nil {
		f.Required = *u.Required
	}
	if u.Type != nil {
		f.Type = *u.Type
		if f.Type == TypeArray {
			if f.ItemsStructure == nil {
				f.ItemsStructure = NewItemsStructure()
			}
		} else {
			f.ItemsStructure = nil
		}
	}
}

// Schema is the ordered list of fields sent to the extraction service.
type Schema []Field

// Clone returns a deep copy of the schema.
func (s Schema) Clone() Schema {
	if s == nil {
		return nil
	}
	out := make(Schema, len(s))
	for i, f := range s {
		out[i] = f.Clone()
	}
	return out
}

// Keys returns the field keys in order.
func (s Schema) Keys() []string {
	keys := make([]string, len(s))
	for i, f := range s {
		keys[i] = f.Key
	}
	return keys
}
