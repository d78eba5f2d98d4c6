package dataref

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Separators understood inside an --id value.
const (
	AltSeparator   = "^"
	RangeSeparator = ".."
)

// Schema maps each dimension a repository knows to its value type.
type Schema map[string]cty.Type

// Names returns the dimension names, sorted.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseError reports a malformed --id group.
type ParseError struct {
	Token  string
	Reason string
}

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid data id %q: %s", e.Token, e.Reason)
}

// Template selects IDs: every named dimension must take one of its listed
// values; unnamed dimensions are free.
type Template struct {
	keys   []string
	values map[string][]cty.Value
}

// Keys returns the constrained dimensions in the order they were given.
func (t Template) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Values returns the accepted values of a dimension.
func (t Template) Values(key string) []cty.Value {
	return append([]cty.Value(nil), t.values[key]...)
}

// Matches reports whether id satisfies every constraint of the template.
func (t Template) Matches(id ID) bool {
	for _, key := range t.keys {
		v, ok := id.Value(key)
		if !ok {
			return false
		}
		matched := false
		for _, want := range t.values[key] {
			if want.Type().Equals(v.Type()) && want.RawEquals(v) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// String renders the template the way it would be typed.
func (t Template) String() string {
	parts := make([]string, len(t.keys))
	for i, key := range t.keys {
		vals := make([]string, len(t.values[key]))
		for j, v := range t.values[key] {
			vals[j] = formatValue(v)
		}
		parts[i] = key + "=" + strings.Join(vals, AltSeparator)
	}
	return strings.Join(parts, " ")
}

// ParseGroup parses the key=value tokens of one --id group. Keys must be
// dimensions of schema; values are coerced to the dimension type. A value
// may list alternatives separated by "^", and a number dimension accepts an
// inclusive integer range "lo..hi".
func ParseGroup(tokens []string, schema Schema) (Template, error) {
	t := Template{values: make(map[string][]cty.Value)}
	if len(tokens) == 0 {
		return t, &ParseError{Reason: "empty group"}
	}

	for _, tok := range tokens {
		key, raw, ok := strings.Cut(tok, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" || raw == "" {
			return t, &ParseError{Token: tok, Reason: "expected key=value"}
		}
		ty, known := schema[key]
		if !known {
			return t, &ParseError{Token: tok, Reason: fmt.Sprintf("unknown dimension %q, expected one of %s", key, strings.Join(schema.Names(), ", "))}
		}
		if _, dup := t.values[key]; dup {
			return t, &ParseError{Token: tok, Reason: fmt.Sprintf("dimension %q given twice", key)}
		}

		var vals []cty.Value
		for _, alt := range strings.Split(raw, AltSeparator) {
			parsed, err := parseValue(alt, ty)
			if err != nil {
				return t, &ParseError{Token: tok, Reason: err.Error()}
			}
			vals = append(vals, parsed...)
		}
		t.keys = append(t.keys, key)
		t.values[key] = vals
	}
	return t, nil
}

// parseValue coerces one alternative, expanding integer ranges.
func parseValue(raw string, ty cty.Type) ([]cty.Value, error) {
	if ty == cty.Number {
		if lo, hi, isRange := strings.Cut(raw, RangeSeparator); isRange {
			return expandRange(lo, hi)
		}
	}
	v, err := convert.Convert(cty.StringVal(raw), ty)
	if err != nil {
		return nil, fmt.Errorf("value %q is not a valid %s", raw, ty.FriendlyName())
	}
	return []cty.Value{v}, nil
}

// maxRange bounds the size of an expanded range.
const maxRange = 100000

func expandRange(loStr, hiStr string) ([]cty.Value, error) {
	lo, ok := new(big.Int).SetString(loStr, 10)
	if !ok {
		return nil, fmt.Errorf("range start %q is not an integer", loStr)
	}
	hi, ok := new(big.Int).SetString(hiStr, 10)
	if !ok {
		return nil, fmt.Errorf("range end %q is not an integer", hiStr)
	}
	if !lo.IsInt64() || !hi.IsInt64() {
		return nil, fmt.Errorf("range %s..%s is outside the 64-bit integer range", loStr, hiStr)
	}
	if lo.Cmp(hi) > 0 {
		return nil, fmt.Errorf("range %s..%s is empty", loStr, hiStr)
	}
	if new(big.Int).Sub(hi, lo).Cmp(big.NewInt(maxRange)) >= 0 {
		return nil, fmt.Errorf("range %s..%s has more than %d values", loStr, hiStr, maxRange)
	}

	var out []cty.Value
	one := big.NewInt(1)
	for i := new(big.Int).Set(lo); i.Cmp(hi) <= 0; i.Add(i, one) {
		out = append(out, cty.NumberIntVal(i.Int64()))
	}
	return out, nil
}
