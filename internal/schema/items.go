package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Item is one sub-field of an array element.
type Item struct {
	Key         string
	Description string
}

// ItemsStructure is an ordered mapping from sub-key to description describing
// the shape of one array element. It encodes as a plain object whose key order
// is the insertion order.
type ItemsStructure struct {
	keys   []string
	values map[string]string
}

// NewItemsStructure builds a structure from items in order. A repeated key
// keeps its first position and takes the last description.
func NewItemsStructure(items ...Item) *ItemsStructure {
	s := &ItemsStructure{values: make(map[string]string, len(items))}
	for _, it := range items {
		s.Set(it.Key, it.Description)
	}
	return s
}

// Len returns the number of entries.
func (s *ItemsStructure) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the sub-keys in order.
func (s *ItemsStructure) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Get returns the description stored under key.
func (s *ItemsStructure) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.values[key]
	return v, ok
}

// Has reports whether key is present.
func (s *ItemsStructure) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Entries returns the key/description pairs in order.
func (s *ItemsStructure) Entries() []Item {
	if s == nil {
		return nil
	}
	out := make([]Item, len(s.keys))
	for i, k := range s.keys {
		out[i] = Item{Key: k, Description: s.values[k]}
	}
	return out
}

// Set stores desc under key. An existing key keeps its position; a new key is
// appended.
func (s *ItemsStructure) Set(key, desc string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = desc
}

// Delete removes key. It reports whether an entry was removed.
func (s *ItemsStructure) Delete(key string) bool {
	if !s.Has(key) {
		return false
	}
	delete(s.values, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i:i], s.keys[i+1:]...)
			break
		}
	}
	return true
}

// renamed rebuilds the structure in order, replacing the entry at oldKey with
// newKey/desc. Entries are re-inserted through Set, so renaming onto a sibling
// key collapses the two into the earlier position.
func (s *ItemsStructure) renamed(oldKey, newKey, desc string) *ItemsStructure {
	out := NewItemsStructure()
	for _, k := range s.keys {
		if k == oldKey {
			out.Set(newKey, desc)
		} else {
			out.Set(k, s.values[k])
		}
	}
	return out
}

// Clone returns a deep copy.
func (s *ItemsStructure) Clone() *ItemsStructure {
	if s == nil {
		return nil
	}
	return NewItemsStructure(s.Entries()...)
}

// MarshalJSON encodes the structure as an object in insertion order.
func (s *ItemsStructure) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(s.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of strings, keeping the document's key order.
func (s *ItemsStructure) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("items_structure: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("items_structure: expected object, got %v", tok)
	}

	*s = ItemsStructure{values: make(map[string]string)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("items_structure: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("items_structure: expected key, got %v", tok)
		}
		var desc *string
		if err := dec.Decode(&desc); err != nil {
			return fmt.Errorf("items_structure: value for %q must be a string: %w", key, err)
		}
		if desc == nil {
			s.Set(key, "")
		} else {
			s.Set(key, *desc)
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("items_structure: %w", err)
	}
	return nil
}

// MarshalYAML encodes the structure as a mapping node in insertion order.
func (s *ItemsStructure) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range s.keys {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s.values[k]},
		)
	}
	return node, nil
}

// UnmarshalYAML decodes a mapping of strings, keeping the document's key order.
func (s *ItemsStructure) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("items_structure: expected mapping at line %d", node.Line)
	}
	*s = ItemsStructure{values: make(map[string]string, len(node.Content)/2)}
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("items_structure: value for %q must be a string (line %d)", k.Value, v.Line)
		}
		if v.ShortTag() == "!!null" {
			s.Set(k.Value, "")
			continue
		}
		s.Set(k.Value, v.Value)
	}
	return nil
}
