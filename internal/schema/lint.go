package schema

import "fmt"

// Issue is an advisory finding about a schema. The editor never rejects input;
// issues only inform the user before submission.
type Issue struct {
	FieldID string `json:"field_id" yaml:"field_id"`
	Key     string `json:"key" yaml:"key"`
	Message string `json:"message" yaml:"message"`
}

func (i Issue) String() string {
	if i.Key == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Key, i.Message)
}

// Lint reports empty keys, duplicate top-level keys, array fields without
// sub-fields and empty sub-keys.
//
// Duplicate top-level keys are accepted by the service; they are flagged here
// because only one of them can appear in the returned object.
func Lint(fields Schema) []Issue {
	var issues []Issue
	first := make(map[string]int)

	for i, f := range fields {
		if f.Key == "" {
			issues = append(issues, Issue{
				FieldID: f.ID,
				Message: fmt.Sprintf("field %d has an empty key", i+1),
			})
		} else if prev, ok := first[f.Key]; ok {
			issues = append(issues, Issue{
				FieldID: f.ID,
				Key:     f.Key,
				Message: fmt.Sprintf("duplicate key (also field %d)", prev+1),
			})
		} else {
			first[f.Key] = i
		}

		if f.Type != TypeArray {
			continue
		}
		if f.ItemsStructure.Len() == 0 {
			issues = append(issues, Issue{
				FieldID: f.ID,
				Key:     f.Key,
				Message: "array field has no item sub-fields",
			})
		}
		if f.ItemsStructure.Has("") {
			issues = append(issues, Issue{
				FieldID: f.ID,
				Key:     f.Key,
				Message: "array item has an empty sub-key",
			})
		}
	}
	return issues
}
