package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestItemsStructure_SetDelete(t *testing.T) {
	s := NewItemsStructure(
		Item{Key: "a", Description: "1"},
		Item{Key: "b", Description: "2"},
		Item{Key: "a", Description: "3"},
	)

	want := []Item{{Key: "a", Description: "3"}, {Key: "b", Description: "2"}}
	if diff := cmp.Diff(want, s.Entries()); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}

	if !s.Delete("a") {
		t.Error("Delete(a) = false")
	}
	if s.Delete("a") {
		t.Error("second Delete(a) = true")
	}
	if diff := cmp.Diff([]string{"b"}, s.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestItemsStructure_NilIsEmpty(t *testing.T) {
	var s *ItemsStructure
	if s.Len() != 0 || s.Has("x") || s.Keys() != nil || s.Clone() != nil {
		t.Error("nil structure should behave as empty")
	}
}

func TestItemsStructure_JSONKeepsOrder(t *testing.T) {
	s := NewItemsStructure(
		Item{Key: "zeta", Description: "last letter"},
		Item{Key: "alpha", Description: "first letter"},
		Item{Key: "mid", Description: `quoted "text"`},
	)

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"zeta":"last letter","alpha":"first letter","mid":"quoted \"text\""}`
	if string(data) != want {
		t.Fatalf("Marshal() = %s, want %s", data, want)
	}

	var back ItemsStructure
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff(s.Entries(), back.Entries()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestItemsStructure_UnmarshalJSONErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"array", `["a"]`},
		{"number value", `{"a": 1}`},
		{"nested object", `{"a": {"b": "c"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s ItemsStructure
			if err := json.Unmarshal([]byte(tt.input), &s); err == nil {
				t.Errorf("Unmarshal(%s) expected error", tt.input)
			}
		})
	}

	t.Run("null value becomes empty description", func(t *testing.T) {
		var s ItemsStructure
		if err := json.Unmarshal([]byte(`{"a": null, "b": "x"}`), &s); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		want := []Item{{Key: "a"}, {Key: "b", Description: "x"}}
		if diff := cmp.Diff(want, s.Entries()); diff != "" {
			t.Errorf("entries mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestItemsStructure_YAMLKeepsOrder(t *testing.T) {
	input := `
qty: Item quantity
name: Item name
price: ~
`
	var s ItemsStructure
	if err := yaml.Unmarshal([]byte(input), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := []Item{
		{Key: "qty", Description: "Item quantity"},
		{Key: "name", Description: "Item name"},
		{Key: "price", Description: ""},
	}
	if diff := cmp.Diff(want, s.Entries()); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}

	out, err := yaml.Marshal(&s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Index(string(out), "qty") > strings.Index(string(out), "name") {
		t.Errorf("YAML output lost order:\n%s", out)
	}
}
