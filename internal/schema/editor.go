package schema

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

const (
	// ItemKeyPrefix prefixes generated array sub-keys (field_1, field_2, ...).
	ItemKeyPrefix = "field_"
	// ItemPlaceholder is the description given to a newly added sub-key.
	ItemPlaceholder = "Description"

	// randomKeySpan is the initial range of random suffixes tried after the
	// sequential name collides.
	randomKeySpan = 1000
)

// Editor owns a schema for the duration of an editing session. All mutation
// goes through its methods; readers receive copies.
//
// Editor is not safe for concurrent use.
type Editor struct {
	fields Schema
	newID  func() string
	rng    *rand.Rand

	seed    Schema
	hasSeed bool
}

// Option configures an Editor.
type Option func(*Editor)

// WithIDFunc replaces the field id generator. Ids must never repeat.
func WithIDFunc(fn func() string) Option {
	return func(e *Editor) { e.newID = fn }
}

// WithRand sets the random source used for fallback array sub-keys.
func WithRand(r *rand.Rand) Option {
	return func(e *Editor) { e.rng = r }
}

// WithFields seeds the editor with fields instead of the starter schema.
func WithFields(fields Schema) Option {
	return func(e *Editor) {
		e.seed = fields
		e.hasSeed = true
	}
}

// NewEditor returns an editor holding the starter schema unless WithFields is
// given.
func NewEditor(opts ...Option) *Editor {
	e := &Editor{
		newID: uuid.NewString,
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.hasSeed {
		e.Replace(e.seed)
		e.seed = nil
	} else {
		e.fields = Starter(e.newID)
	}
	return e
}

// Fields returns a copy of the current schema.
func (e *Editor) Fields() Schema {
	return e.fields.Clone()
}

// Len returns the number of fields.
func (e *Editor) Len() int {
	return len(e.fields)
}

// Field returns a copy of the field with the given id.
func (e *Editor) Field(id string) (Field, bool) {
	i := e.index(id)
	if i < 0 {
		return Field{}, false
	}
	return e.fields[i].Clone(), true
}

// Reset restores the starter schema with fresh ids.
func (e *Editor) Reset() {
	e.fields = Starter(e.newID)
}

// Replace swaps in fields loaded from elsewhere. Fields without an id get one,
// and the type/items pairing is normalized.
func (e *Editor) Replace(fields Schema) {
	next := fields.Clone()
	for i := range next {
		if next[i].ID == "" {
			next[i].ID = e.newID()
		}
		t := next[i].Type
		if t == "" {
			t = TypeString
		}
		FieldUpdate{Type: &t}.apply(&next[i])
	}
	if next == nil {
		next = Schema{}
	}
	e.fields = next
}

// AddField appends an empty STRING field and returns it.
func (e *Editor) AddField() Field {
	f := Field{
		ID:   e.newID(),
		Type: TypeString,
	}
	e.fields = append(e.fields, f)
	return f
}

// RemoveField removes the field with the given id. Unknown ids are ignored.
func (e *Editor) RemoveField(id string) {
	i := e.index(id)
	if i < 0 {
		return
	}
	next := make(Schema, 0, len(e.fields)-1)
	next = append(next, e.fields[:i]...)
	e.fields = append(next, e.fields[i+1:]...)
}

// UpdateField merges u into the field with the given id. Switching to ARRAY
// initializes an empty items structure; switching away discards it.
// Unknown ids are ignored.
func (e *Editor) UpdateField(id string, u FieldUpdate) {
	i := e.index(id)
	if i < 0 {
		return
	}
	u.apply(&e.fields[i])
}

// AddArrayItem appends a new sub-key to an ARRAY field and returns it. The
// name never collides with an existing sub-key. It returns false when the
// field is missing or not an array.
func (e *Editor) AddArrayItem(fieldID string) (string, bool) {
	f := e.arrayField(fieldID)
	if f == nil {
		return "", false
	}
	if f.ItemsStructure == nil {
		f.ItemsStructure = NewItemsStructure()
	}
	key := e.freeItemKey(f.ItemsStructure)
	f.ItemsStructure.Set(key, ItemPlaceholder)
	return key, true
}

// RemoveArrayItem removes one sub-key from a field's items structure.
// Missing fields or keys are ignored.
func (e *Editor) RemoveArrayItem(fieldID, subKey string) {
	i := e.index(fieldID)
	if i < 0 || e.fields[i].ItemsStructure == nil {
		return
	}
	e.fields[i].ItemsStructure.Delete(subKey)
}

// RenameArrayItem replaces the entry at oldKey with newKey and newDescription,
// in place. Every other entry keeps its position and description. Passing
// newKey == oldKey edits only the description.
func (e *Editor) RenameArrayItem(fieldID, oldKey, newKey, newDescription string) {
	i := e.index(fieldID)
	if i < 0 || e.fields[i].ItemsStructure == nil {
		return
	}
	e.fields[i].ItemsStructure = e.fields[i].ItemsStructure.renamed(oldKey, newKey, newDescription)
}

func (e *Editor) index(id string) int {
	for i := range e.fields {
		if e.fields[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Editor) arrayField(id string) *Field {
	i := e.index(id)
	if i < 0 || e.fields[i].Type != TypeArray {
		return nil
	}
	return &e.fields[i]
}

// freeItemKey tries field_<n+1> first, then random suffixes. The random range
// grows tenfold after every span of misses so the search always ends.
func (e *Editor) freeItemKey(items *ItemsStructure) string {
	key := fmt.Sprintf("%s%d", ItemKeyPrefix, items.Len()+1)
	span := randomKeySpan
	misses := 0
	for items.Has(key) {
		key = fmt.Sprintf("%s%d", ItemKeyPrefix, e.rng.IntN(span))
		misses++
		if misses == span {
			span *= 10
			misses = 0
		}
	}
	return key
}
