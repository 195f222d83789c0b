package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a schema document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath guesses the document format from a file extension.
// Anything that is not .json is read as YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// MarshalSchemaConfig encodes fields as the schema_config form value: a JSON
// array of fields with items_structure as an ordered object of strings.
func MarshalSchemaConfig(fields Schema) ([]byte, error) {
	if fields == nil {
		fields = Schema{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}

// LoadFile reads a schema document from disk. Fields without an id get one.
func LoadFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	fields, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewEditor(WithFields(fields)).Fields(), nil
}

// Decode parses a schema document: a list of fields in YAML or JSON. Type
// names are accepted in any letter case and default to STRING. items_structure
// is dropped from non-array fields and added empty to array fields.
func Decode(data []byte, format Format) (Schema, error) {
	var fields Schema
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&fields); err != nil {
			return nil, fmt.Errorf("failed to parse schema JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("failed to parse schema YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown schema format: %s", format)
	}

	for i := range fields {
		t := TypeString
		if fields[i].Type != "" {
			var err error
			if t, err = ParseFieldType(string(fields[i].Type)); err != nil {
				return nil, fmt.Errorf("field %d (%q): %w", i, fields[i].Key, err)
			}
		}
		FieldUpdate{Type: &t}.apply(&fields[i])
	}
	return fields, nil
}

// Encode writes fields as a YAML or JSON document.
func Encode(w io.Writer, fields Schema, format Format) error {
	if fields == nil {
		fields = Schema{}
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(fields)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(fields)
	default:
		return fmt.Errorf("unknown schema format: %s", format)
	}
}
