package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const draft2020 = "https://json-schema.org/draft/2020-12/schema"

// ToJSONSchema derives a JSON Schema for the data object the service is asked
// to return. Every property is nullable because the service answers null for
// values it cannot find; required only asserts presence. Fields with an empty
// key are skipped.
func ToJSONSchema(fields Schema) map[string]any {
	props := make(map[string]any, len(fields))
	var required []string
	seen := make(map[string]bool)

	for _, f := range fields {
		if f.Key == "" {
			continue
		}
		props[f.Key] = fieldSchema(f)
		if f.Required && !seen[f.Key] {
			required = append(required, f.Key)
			seen[f.Key] = true
		}
	}

	root := map[string]any{
		"$schema":    draft2020,
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		root["required"] = required
	}
	return root
}

func fieldSchema(f Field) map[string]any {
	out := map[string]any{}
	if f.Description != "" {
		out["description"] = f.Description
	}
	switch f.Type {
	case TypeNumber:
		out["type"] = []string{"number", "null"}
	case TypeBoolean:
		out["type"] = []string{"boolean", "null"}
	case TypeArray:
		itemProps := make(map[string]any, f.ItemsStructure.Len())
		for _, it := range f.ItemsStructure.Entries() {
			p := map[string]any{}
			if it.Description != "" {
				p["description"] = it.Description
			}
			itemProps[it.Key] = p
		}
		out["type"] = []string{"array", "null"}
		out["items"] = map[string]any{
			"type":       "object",
			"properties": itemProps,
		}
	default:
		out["type"] = []string{"string", "null"}
	}
	return out
}

// ValidateData checks an extracted data value against the schema derived from
// fields. Mismatches are returned as readable warnings; the error is reserved
// for malformed input. A null or empty value yields no warnings.
func ValidateData(fields Schema, data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	raw, err := json.Marshal(ToJSONSchema(fields))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize data schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("data.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to load data schema: %w", err)
	}
	compiled, err := compiler.Compile("data.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile data schema: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}

	err = compiled.Validate(doc)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("failed to validate data: %w", err)
	}
	warnings := leafMessages(ve, nil)
	sort.Strings(warnings)
	return warnings, nil
}

func leafMessages(ve *jsonschema.ValidationError, acc []string) []string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return append(acc, fmt.Sprintf("%s: %s", loc, ve.Message))
	}
	for _, c := range ve.Causes {
		acc = leafMessages(c, acc)
	}
	return acc
}
