package config

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ReservedName is the item name a Config may not declare. Override sources
// use it inside a configurable block to name the new target.
const ReservedName = "target"

// Item is one named entry of a Config: a *Field or a *ConfigurableField.
type Item interface {
	ItemName() string
	clone() Item
}

// Field is a typed leaf of a Config.
type Field struct {
	Name     string
	Doc      string
	Type     cty.Type
	Default  cty.Value
	Optional bool
	Check    func(cty.Value) error

	value cty.Value
}

// NewField declares a simple field. The default is converted with the same
// rules as an assignment; an invalid default is a programming error and
// panics.
func NewField(name, doc string, ty cty.Type, def any) *Field {
	f := &Field{Name: name, Doc: doc, Type: ty}
	val, err := f.convert(def)
	if err != nil {
		panic(fmt.Sprintf("config: invalid default for field %q: %v", name, err))
	}
	f.Default = val
	f.value = val
	return f
}

// WithCheck attaches a check run on every assignment and by Validate.
func (f *Field) WithCheck(check func(cty.Value) error) *Field {
	f.Check = check
	return f
}

// AsOptional allows the field to hold null.
func (f *Field) AsOptional() *Field {
	f.Optional = true
	return f
}

// ItemName implements Item.
func (f *Field) ItemName() string { return f.Name }

// Value returns the current value of the field.
func (f *Field) Value() cty.Value { return f.value }

func (f *Field) clone() Item {
	c := *f
	return &c
}

// set validates v and stores it.
func (f *Field) set(v any) error {
	val, err := f.convert(v)
	if err != nil {
		return &ValidationError{Field: f.Name, Reason: "rejected value", Err: err}
	}
	if err := f.validate(val); err != nil {
		return err
	}
	f.value = val
	return nil
}

func (f *Field) validate(val cty.Value) error {
	if val.IsNull() {
		if !f.Optional {
			return &ValidationError{Field: f.Name, Reason: "value is required"}
		}
		return nil
	}
	if f.Check != nil {
		if err := f.Check(val); err != nil {
			return &ValidationError{Field: f.Name, Reason: "check failed", Err: err}
		}
	}
	return nil
}

// convert turns a Go value or a cty.Value into a value of the field type.
// The implied type must match exactly; no lossy conversions take place.
func (f *Field) convert(v any) (cty.Value, error) {
	var val cty.Value
	switch tv := v.(type) {
	case nil:
		return cty.NullVal(f.Type), nil
	case cty.Value:
		val = tv
	default:
		implied, err := gocty.ImpliedType(v)
		if err != nil {
			return cty.NilVal, fmt.Errorf("unsupported Go type %T: %w", v, err)
		}
		val, err = gocty.ToCtyValue(v, implied)
		if err != nil {
			return cty.NilVal, err
		}
	}

	if val.IsNull() {
		return cty.NullVal(f.Type), nil
	}
	if !val.IsWhollyKnown() {
		return cty.NilVal, fmt.Errorf("value must be known")
	}
	if f.Type == cty.DynamicPseudoType {
		return val, nil
	}
	if !val.Type().Equals(f.Type) {
		return cty.NilVal, fmt.Errorf("expected %s, got %s", f.Type.FriendlyName(), val.Type().FriendlyName())
	}
	return val, nil
}

// Range returns a check accepting numbers within [lo, hi].
func Range(lo, hi float64) func(cty.Value) error {
	return func(v cty.Value) error {
		if v.Type() != cty.Number {
			return fmt.Errorf("range check needs a number, got %s", v.Type().FriendlyName())
		}
		n, _ := v.AsBigFloat().Float64()
		if n < lo || n > hi {
			return fmt.Errorf("%g is outside [%g, %g]", n, lo, hi)
		}
		return nil
	}
}

// OneOf returns a check accepting only the listed values.
func OneOf(allowed ...any) func(cty.Value) error {
	vals := make([]cty.Value, 0, len(allowed))
	for _, a := range allowed {
		ty, err := gocty.ImpliedType(a)
		if err != nil {
			panic(fmt.Sprintf("config: OneOf: %v", err))
		}
		v, err := gocty.ToCtyValue(a, ty)
		if err != nil {
			panic(fmt.Sprintf("config: OneOf: %v", err))
		}
		vals = append(vals, v)
	}
	return func(v cty.Value) error {
		for _, a := range vals {
			if a.Type().Equals(v.Type()) && a.RawEquals(v) {
				return nil
			}
		}
		return fmt.Errorf("%s is not one of the allowed values", v.GoString())
	}
}
