// Package metadata provides the hierarchical property store every task
// writes its diagnostics into.
//
// A Store holds scalar entries (numbers, strings, bools) and named child
// stores. Paths are colon-delimited, so "addMult:add" names the child "add"
// of the child "addMult". Entries can be set and overwritten but never
// removed.
//
// A Store is not safe for concurrent use; it belongs to the task that owns
// it.
package metadata

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Separator delimits the segments of a store path.
const Separator = ":"

// Store is a named, hierarchical key/value record.
type Store struct {
	name     string
	order    []string
	values   map[string]cty.Value
	children map[string]*Store
}

// New creates an empty store.
func New(name string) *Store {
	return &Store{
		name:     name,
		values:   make(map[string]cty.Value),
		children: make(map[string]*Store),
	}
}

// Name returns the name the store was created with.
func (s *Store) Name() string { return s.name }

// Names returns the direct entry and child names in insertion order.
func (s *Store) Names() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of direct entries and children.
func (s *Store) Len() int { return len(s.order) }

// Set writes a scalar value at path, creating intermediate stores as needed.
// Accepted values are Go numbers, strings and bools, or a primitive
// cty.Value.
func (s *Store) Set(path string, v any) error {
	val, err := toScalar(v)
	if err != nil {
		return fmt.Errorf("metadata: set %q: %w", path, err)
	}
	parent, key, err := s.parentOf(path, true)
	if err != nil {
		return err
	}
	if _, isStore := parent.children[key]; isStore {
		return fmt.Errorf("metadata: set %q: entry is a store", path)
	}
	if _, exists := parent.values[key]; !exists {
		parent.order = append(parent.order, key)
	}
	parent.values[key] = val
	return nil
}

// Get returns the scalar value at path.
func (s *Store) Get(path string) (cty.Value, bool) {
	parent, key, err := s.parentOf(path, false)
	if err != nil {
		return cty.NilVal, false
	}
	v, ok := parent.values[key]
	return v, ok
}

// Float returns the number at path as float64.
func (s *Store) Float(path string) (float64, bool) {
	v, ok := s.Get(path)
	if !ok || v.Type() != cty.Number {
		return 0, false
	}
	f, _ := v.AsBigFloat().Float64()
	return f, true
}

// String returns the string at path.
func (s *Store) String(path string) (string, bool) {
	v, ok := s.Get(path)
	if !ok || v.Type() != cty.String {
		return "", false
	}
	return v.AsString(), true
}

// Has reports whether path names a value or a store.
func (s *Store) Has(path string) bool {
	if _, ok := s.Get(path); ok {
		return true
	}
	_, ok := s.Store(path)
	return ok
}

// SetStore attaches child at path, replacing any store already there.
// Stores previously attached below the replaced one are moved into child
// unless child already has an entry of that name, so the final tree does not
// depend on the order in which paths were attached. Intermediate stores are
// created as needed.
func (s *Store) SetStore(path string, child *Store) error {
	if child == nil {
		return fmt.Errorf("metadata: set store %q: store is nil", path)
	}
	parent, key, err := s.parentOf(path, true)
	if err != nil {
		return err
	}
	if _, isValue := parent.values[key]; isValue {
		return fmt.Errorf("metadata: set store %q: entry is a value", path)
	}
	if existing, exists := parent.children[key]; exists {
		for _, name := range existing.order {
			if sub, ok := existing.children[name]; ok && !child.Has(name) {
				child.order = append(child.order, name)
				child.children[name] = sub
			}
		}
	} else {
		parent.order = append(parent.order, key)
	}
	parent.children[key] = child
	return nil
}

// Store returns the child store at path.
func (s *Store) Store(path string) (*Store, bool) {
	cur := s
	for _, seg := range strings.Split(path, Separator) {
		next, ok := cur.children[seg]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Copy returns a deep copy of the store.
func (s *Store) Copy() *Store {
	out := New(s.name)
	out.order = append(out.order, s.order...)
	for k, v := range s.values {
		out.values[k] = v
	}
	for k, c := range s.children {
		out.children[k] = c.Copy()
	}
	return out
}

// ToCty returns the store as a cty object value.
func (s *Store) ToCty() cty.Value {
	attrs := make(map[string]cty.Value, len(s.order))
	for k, v := range s.values {
		attrs[k] = v
	}
	for k, c := range s.children {
		attrs[k] = c.ToCty()
	}
	return cty.ObjectVal(attrs)
}

// MarshalJSON encodes the store tree as a JSON object.
func (s *Store) MarshalJSON() ([]byte, error) {
	val := s.ToCty()
	return ctyjson.Marshal(val, val.Type())
}

// parentOf walks path down to the store that holds its last segment.
func (s *Store) parentOf(path string, create bool) (*Store, string, error) {
	segs := strings.Split(path, Separator)
	for _, seg := range segs {
		if seg == "" {
			return nil, "", fmt.Errorf("metadata: invalid path %q", path)
		}
	}

	cur := s
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur.children[seg]
		if !ok {
			if !create {
				return nil, "", fmt.Errorf("metadata: no store at %q", seg)
			}
			if _, isValue := cur.values[seg]; isValue {
				return nil, "", fmt.Errorf("metadata: %q is a value, not a store", seg)
			}
			next = New(seg)
			cur.order = append(cur.order, seg)
			cur.children[seg] = next
		}
		cur = next
	}
	return cur, segs[len(segs)-1], nil
}

func toScalar(v any) (cty.Value, error) {
	if v == nil {
		return cty.NilVal, fmt.Errorf("value must not be nil")
	}
	val, ok := v.(cty.Value)
	if !ok {
		ty, err := gocty.ImpliedType(v)
		if err != nil {
			return cty.NilVal, fmt.Errorf("unsupported value type %T", v)
		}
		if val, err = gocty.ToCtyValue(v, ty); err != nil {
			return cty.NilVal, err
		}
	}
	if !val.Type().IsPrimitiveType() {
		return cty.NilVal, fmt.Errorf("only scalar values are allowed, got %s", val.Type().FriendlyName())
	}
	if val.IsNull() || !val.IsKnown() {
		return cty.NilVal, fmt.Errorf("value must be known and not null")
	}
	return val, nil
}
