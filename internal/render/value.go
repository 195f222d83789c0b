// Package render turns extraction results into terminal text.
//
// Results are decoded into an ordered tree rather than map[string]any so that
// object keys print in the order the service sent them and number literals keep
// their exact text (1799.00 stays 1799.00).
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	j "github.com/goccy/go-json"
)

// Kind identifies the JSON type of a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Object
	Array
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Object:
		return "object"
	case Array:
		return "array"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Member is one key/value pair of an object.
type Member struct {
	Key   string
	Value *Value
}

// Value is a decoded JSON value.
type Value struct {
	Kind Kind
	// Bool holds the value of a Bool.
	Bool bool
	// Text holds the literal of a Number or the contents of a String.
	Text    string
	Members []Member
	Elems   []*Value
}

// Get returns the member value stored under key for an Object.
func (v *Value) Get(key string) (*Value, bool) {
	if v == nil || v.Kind != Object {
		return nil, false
	}
	for _, m := range v.Members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Decode parses raw JSON into a Value. Empty input decodes to Null.
func Decode(raw []byte) (*Value, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return &Value{Kind: Null}, nil
	}

	dec := j.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	v, err := decodeFrom(dec, tok)
	if err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode result: trailing data after value")
	}
	return v, nil
}

func decodeFrom(dec *j.Decoder, tok j.Token) (*Value, error) {
	switch t := tok.(type) {
	case nil:
		return &Value{Kind: Null}, nil
	case bool:
		return &Value{Kind: Bool, Bool: t}, nil
	case j.Number:
		return &Value{Kind: Number, Text: string(t)}, nil
	case float64:
		return &Value{Kind: Number, Text: strconv.FormatFloat(t, 'g', -1, 64)}, nil
	case string:
		return &Value{Kind: String, Text: t}, nil
	case j.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", rune(t))
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func decodeObject(dec *j.Decoder) (*Value, error) {
	obj := &Value{Kind: Object}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(j.Delim); ok && d == '}' {
			return obj, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		tok, err = dec.Token()
		if err != nil {
			return nil, err
		}
		val, err := decodeFrom(dec, tok)
		if err != nil {
			return nil, err
		}
		obj.Members = append(obj.Members, Member{Key: key, Value: val})
	}
}

func decodeArray(dec *j.Decoder) (*Value, error) {
	arr := &Value{Kind: Array}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(j.Delim); ok && d == ']' {
			return arr, nil
		}
		val, err := decodeFrom(dec, tok)
		if err != nil {
			return nil, err
		}
		arr.Elems = append(arr.Elems, val)
	}
}
