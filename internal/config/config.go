package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Config is an ordered tree of fields and configurable fields.
type Config struct {
	order  []string
	items  map[string]Item
	frozen bool
}

// New builds a Config from the given items, in declaration order.
func New(items ...Item) (*Config, error) {
	c := &Config{items: make(map[string]Item)}
	for _, it := range items {
		if err := c.Add(it); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error. It is meant for the static
// default-config constructors of task descriptors.
func MustNew(items ...Item) *Config {
	c, err := New(items...)
	if err != nil {
		panic(err)
	}
	return c
}

// Add appends an item. It fails on a frozen config, a duplicate name or the
// reserved name.
func (c *Config) Add(it Item) error {
	if c.frozen {
		return &ValidationError{Field: it.ItemName(), Reason: "cannot add a field to a frozen config"}
	}
	name := it.ItemName()
	switch {
	case name == "" || strings.ContainsAny(name, ". "):
		return &ValidationError{Field: name, Reason: "invalid field name"}
	case name == ReservedName:
		return &ValidationError{Field: name, Reason: "field name is reserved"}
	}
	if _, exists := c.items[name]; exists {
		return &ValidationError{Field: name, Reason: "duplicate field"}
	}
	if cf, ok := it.(*ConfigurableField); ok {
		cf.owner = c
	}
	c.order = append(c.order, name)
	c.items[name] = it
	return nil
}

// Names returns the item names in declaration order.
func (c *Config) Names() []string {
	return append([]string(nil), c.order...)
}

// Field returns the simple field with the given name.
func (c *Config) Field(name string) (*Field, bool) {
	f, ok := c.items[name].(*Field)
	return f, ok
}

// Fields returns the simple fields in declaration order.
func (c *Config) Fields() []*Field {
	var out []*Field
	for _, name := range c.order {
		if f, ok := c.items[name].(*Field); ok {
			out = append(out, f)
		}
	}
	return out
}

// Configurable returns the configurable field with the given name.
func (c *Config) Configurable(name string) (*ConfigurableField, bool) {
	cf, ok := c.items[name].(*ConfigurableField)
	return cf, ok
}

// Configurables returns the configurable fields in declaration order.
func (c *Config) Configurables() []*ConfigurableField {
	var out []*ConfigurableField
	for _, name := range c.order {
		if cf, ok := c.items[name].(*ConfigurableField); ok {
			out = append(out, cf)
		}
	}
	return out
}

// Set assigns a value to the simple field at path. Paths are dotted through
// configurable fields, e.g. "add.addend".
func (c *Config) Set(path string, v any) error {
	head, rest, nested := strings.Cut(path, ".")
	it, ok := c.items[head]
	if !ok {
		return &ValidationError{Field: head, Reason: "no such field"}
	}
	switch item := it.(type) {
	case *Field:
		if nested {
			return &ValidationError{Field: path, Reason: "not a configurable field"}
		}
		return item.set(v)
	case *ConfigurableField:
		if !nested {
			return &ValidationError{Field: head, Reason: "cannot assign to a configurable field, retarget it instead"}
		}
		if err := item.config.Set(rest, v); err != nil {
			return prefixed(head, err)
		}
		return nil
	}
	return &ValidationError{Field: head, Reason: "unknown item kind"}
}

// Get returns the value of the simple field at path.
func (c *Config) Get(path string) (cty.Value, error) {
	head, rest, nested := strings.Cut(path, ".")
	switch item := c.items[head].(type) {
	case *Field:
		if nested {
			return cty.NilVal, &ValidationError{Field: path, Reason: "not a configurable field"}
		}
		return item.value, nil
	case *ConfigurableField:
		if !nested {
			return cty.NilVal, &ValidationError{Field: head, Reason: "is a configurable field"}
		}
		v, err := item.config.Get(rest)
		if err != nil {
			return cty.NilVal, prefixed(head, err)
		}
		return v, nil
	}
	return cty.NilVal, &ValidationError{Field: head, Reason: "no such field"}
}

// FieldAt returns the simple field at a dotted path, e.g. "add.addend".
func (c *Config) FieldAt(path string) (*Field, error) {
	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		f, ok := c.Field(head)
		if !ok {
			return nil, &ValidationError{Field: head, Reason: "no such field"}
		}
		return f, nil
	}
	cf, ok := c.Configurable(head)
	if !ok {
		return nil, &ValidationError{Field: head, Reason: "no such configurable field"}
	}
	f, err := cf.config.FieldAt(rest)
	if err != nil {
		return nil, prefixed(head, err)
	}
	return f, nil
}

// Lookup returns the configurable field at a dotted path, e.g. "outer.inner".
func (c *Config) Lookup(path string) (*ConfigurableField, error) {
	head, rest, nested := strings.Cut(path, ".")
	cf, ok := c.Configurable(head)
	if !ok {
		return nil, &ValidationError{Field: head, Reason: "no such configurable field"}
	}
	if !nested {
		return cf, nil
	}
	inner, err := cf.config.Lookup(rest)
	if err != nil {
		return nil, prefixed(head, err)
	}
	return inner, nil
}

// Float returns a number field as float64. It panics if path is not a
// declared field: reading an undeclared field is a programming error.
func (c *Config) Float(path string) float64 {
	v := c.mustGet(path)
	if v.IsNull() {
		return 0
	}
	f, _ := v.AsBigFloat().Float64()
	return f
}

// Int returns a number field as int64, truncating any fraction.
func (c *Config) Int(path string) int64 {
	v := c.mustGet(path)
	if v.IsNull() {
		return 0
	}
	i, _ := v.AsBigFloat().Int64()
	return i
}

// String returns a string field.
func (c *Config) String(path string) string {
	v := c.mustGet(path)
	if v.IsNull() {
		return ""
	}
	return v.AsString()
}

// Bool returns a bool field.
func (c *Config) Bool(path string) bool {
	v := c.mustGet(path)
	if v.IsNull() {
		return false
	}
	return v.True()
}

func (c *Config) mustGet(path string) cty.Value {
	v, err := c.Get(path)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate re-runs every field check, recursively.
func (c *Config) Validate() error {
	for _, name := range c.order {
		switch item := c.items[name].(type) {
		case *Field:
			if err := item.validate(item.value); err != nil {
				return err
			}
		case *ConfigurableField:
			if err := item.config.Validate(); err != nil {
				return prefixed(name, err)
			}
		}
	}
	return nil
}

// Freeze locks the structure of the config tree: no more fields, no more
// retargets. Field values stay assignable.
func (c *Config) Freeze() {
	c.frozen = true
	for _, cf := range c.Configurables() {
		cf.config.Freeze()
	}
}

// Frozen reports whether Freeze was called.
func (c *Config) Frozen() bool { return c.frozen }

// Copy returns an independent, unfrozen deep copy.
func (c *Config) Copy() *Config {
	out := &Config{
		order: append([]string(nil), c.order...),
		items: make(map[string]Item, len(c.items)),
	}
	for name, it := range c.items {
		cp := it.clone()
		if cf, ok := cp.(*ConfigurableField); ok {
			cf.owner = out
		}
		out.items[name] = cp
	}
	return out
}

// Equal reports whether two configs have the same structure, targets and
// values.
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	if !reflect.DeepEqual(c.order, other.order) {
		return false
	}
	for _, name := range c.order {
		switch a := c.items[name].(type) {
		case *Field:
			b, ok := other.items[name].(*Field)
			if !ok || !a.Type.Equals(b.Type) || !a.value.RawEquals(b.value) {
				return false
			}
		case *ConfigurableField:
			b, ok := other.items[name].(*ConfigurableField)
			if !ok || a.target.TargetName() != b.target.TargetName() || !a.config.Equal(b.config) {
				return false
			}
		}
	}
	return true
}

// Decode copies the simple fields of this config into the struct pointed to
// by target. Struct fields are matched by their `cty` tag; fields without a
// tag are ignored. A null value leaves the zero value of the struct field.
func (c *Config) Decode(target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: decode target must be a non-nil pointer to a struct, got %T", target)
	}

	sv := rv.Elem()
	st := sv.Type()
	for i := 0; i < st.NumField(); i++ {
		tag := st.Field(i).Tag.Get("cty")
		if tag == "" || tag == "-" {
			continue
		}
		f, ok := c.Field(tag)
		if !ok {
			return &ValidationError{Field: tag, Reason: fmt.Sprintf("struct field %s has no matching config field", st.Field(i).Name)}
		}

		dst := sv.Field(i)
		if f.value.IsNull() {
			dst.Set(reflect.Zero(dst.Type()))
			continue
		}
		if err := gocty.FromCtyValue(f.value, dst.Addr().Interface()); err != nil {
			return fmt.Errorf("config: decode field %q into %T: %w", tag, target, err)
		}
	}
	return nil
}
