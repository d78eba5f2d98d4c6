package dataref

import (
	"math/big"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Pair is one dimension of an ID.
type Pair struct {
	Key   string
	Value cty.Value
}

// ID is an ordered, immutable mapping from dimension name to value.
type ID struct {
	pairs []Pair
}

// NewID builds an ID from pairs, keeping their order. A repeated key keeps
// its first position and takes the last value.
func NewID(pairs ...Pair) ID {
	out := make([]Pair, 0, len(pairs))
	index := make(map[string]int, len(pairs))
	for _, p := range pairs {
		if i, ok := index[p.Key]; ok {
			out[i].Value = p.Value
			continue
		}
		index[p.Key] = len(out)
		out = append(out, p)
	}
	return ID{pairs: out}
}

// Keys returns the dimension names in order.
func (id ID) Keys() []string {
	keys := make([]string, len(id.pairs))
	for i, p := range id.pairs {
		keys[i] = p.Key
	}
	return keys
}

// Len returns the number of dimensions.
func (id ID) Len() int { return len(id.pairs) }

// Value returns the cty value of a dimension.
func (id ID) Value(key string) (cty.Value, bool) {
	for _, p := range id.pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return cty.NilVal, false
}

// Get returns a dimension as a plain Go value: int64 for whole numbers,
// float64 for other numbers, string or bool. It returns nil for a missing
// dimension.
func (id ID) Get(key string) any {
	v, ok := id.Value(key)
	if !ok || v.IsNull() {
		return nil
	}
	return goValue(v)
}

// Map returns the ID as a map of plain Go values.
func (id ID) Map() map[string]any {
	out := make(map[string]any, len(id.pairs))
	for _, p := range id.pairs {
		out[p.Key] = goValue(p.Value)
	}
	return out
}

// Vars returns the ID as HCL evaluation variables.
func (id ID) Vars() map[string]cty.Value {
	out := make(map[string]cty.Value, len(id.pairs))
	for _, p := range id.pairs {
		out[p.Key] = p.Value
	}
	return out
}

// Equal reports whether both IDs hold the same pairs in the same order.
func (id ID) Equal(other ID) bool {
	if len(id.pairs) != len(other.pairs) {
		return false
	}
	for i, p := range id.pairs {
		q := other.pairs[i]
		if p.Key != q.Key || !p.Value.RawEquals(q.Value) {
			return false
		}
	}
	return true
}

// String renders the ID as space-separated key=value pairs.
func (id ID) String() string {
	parts := make([]string, len(id.pairs))
	for i, p := range id.pairs {
		parts[i] = p.Key + "=" + formatValue(p.Value)
	}
	return strings.Join(parts, " ")
}

func goValue(v cty.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Type() {
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i
			}
		}
		f, _ := bf.Float64()
		return f
	case cty.String:
		return v.AsString()
	case cty.Bool:
		return v.True()
	}
	return v.GoString()
}

func formatValue(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	switch v.Type() {
	case cty.Number:
		return v.AsBigFloat().Text('f', -1)
	case cty.String:
		return v.AsString()
	case cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	}
	return v.GoString()
}
