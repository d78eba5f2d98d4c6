package dataref

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

var testSchema = Schema{
	"visit":  cty.Number,
	"raft":   cty.String,
	"sensor": cty.String,
	"filter": cty.String,
}

func TestID(t *testing.T) {
	id := NewID(
		Pair{Key: "raft", Value: cty.StringVal("0,3")},
		Pair{Key: "sensor", Value: cty.StringVal("1,1")},
		Pair{Key: "visit", Value: cty.NumberIntVal(85470982)},
	)

	assert.Equal(t, []string{"raft", "sensor", "visit"}, id.Keys())
	assert.Equal(t, "0,3", id.Get("raft"))
	assert.Equal(t, "1,1", id.Get("sensor"))
	assert.Equal(t, int64(85470982), id.Get("visit"))
	assert.Nil(t, id.Get("missing"))
	assert.Equal(t, "raft=0,3 sensor=1,1 visit=85470982", id.String())
	assert.Equal(t, map[string]any{"raft": "0,3", "sensor": "1,1", "visit": int64(85470982)}, id.Map())
}

func TestNewID_RepeatedKey(t *testing.T) {
	id := NewID(
		Pair{Key: "a", Value: cty.NumberIntVal(1)},
		Pair{Key: "b", Value: cty.NumberIntVal(2)},
		Pair{Key: "a", Value: cty.NumberFloatVal(1.5)},
	)
	assert.Equal(t, []string{"a", "b"}, id.Keys())
	assert.Equal(t, 1.5, id.Get("a"))
}

func TestID_Equal(t *testing.T) {
	a := NewID(Pair{Key: "x", Value: cty.StringVal("1")})
	b := NewID(Pair{Key: "x", Value: cty.StringVal("1")})
	c := NewID(Pair{Key: "x", Value: cty.StringVal("2")})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(ID{}))
}

func TestParseGroup(t *testing.T) {
	testCases := []struct {
		name       string
		tokens     []string
		wantKeys   []string
		wantValues map[string][]cty.Value
		expectErr  string
	}{
		{
			name:     "comma inside a value is kept",
			tokens:   []string{"raft=0,3", "sensor=1,1", "visit=85470982"},
			wantKeys: []string{"raft", "sensor", "visit"},
			wantValues: map[string][]cty.Value{
				"raft":   {cty.StringVal("0,3")},
				"sensor": {cty.StringVal("1,1")},
				"visit":  {cty.NumberIntVal(85470982)},
			},
		},
		{
			name:     "alternatives",
			tokens:   []string{"filter=g^r"},
			wantKeys: []string{"filter"},
			wantValues: map[string][]cty.Value{
				"filter": {cty.StringVal("g"), cty.StringVal("r")},
			},
		},
		{
			name:     "integer range",
			tokens:   []string{"visit=3..5^9"},
			wantKeys: []string{"visit"},
			wantValues: map[string][]cty.Value{
				"visit": {cty.NumberIntVal(3), cty.NumberIntVal(4), cty.NumberIntVal(5), cty.NumberIntVal(9)},
			},
		},
		{
			name:     "range ending at the largest int64",
			tokens:   []string{"visit=9223372036854775806..9223372036854775807"},
			wantKeys: []string{"visit"},
			wantValues: map[string][]cty.Value{
				"visit": {cty.NumberIntVal(math.MaxInt64 - 1), cty.NumberIntVal(math.MaxInt64)},
			},
		},
		{
			name:     "range starting at the smallest int64",
			tokens:   []string{"visit=-9223372036854775808..-9223372036854775807"},
			wantKeys: []string{"visit"},
			wantValues: map[string][]cty.Value{
				"visit": {cty.NumberIntVal(math.MinInt64), cty.NumberIntVal(math.MinInt64 + 1)},
			},
		},
		{
			name:     "range at the size limit",
			tokens:   []string{"visit=1..100000"},
			wantKeys: []string{"visit"},
		},
		{name: "range past int64", tokens: []string{"visit=9223372036854775808..9223372036854775809"}, expectErr: "outside the 64-bit integer range"},
		{name: "range end past int64", tokens: []string{"visit=9223372036854775807..9223372036854775808"}, expectErr: "outside the 64-bit integer range"},
		{name: "range one past the size limit", tokens: []string{"visit=0..100000"}, expectErr: "more than"},
		{name: "single value range reversed", tokens: []string{"visit=1..0"}, expectErr: "is empty"},
		{name: "fractional range bound", tokens: []string{"visit=1.5..3"}, expectErr: "not an integer"},
		{name: "empty group", tokens: nil, expectErr: "empty group"},
		{name: "missing equals", tokens: []string{"visit"}, expectErr: "expected key=value"},
		{name: "empty value", tokens: []string{"visit="}, expectErr: "expected key=value"},
		{name: "unknown key", tokens: []string{"ccd=1"}, expectErr: "unknown dimension"},
		{name: "duplicate key", tokens: []string{"visit=1", "visit=2"}, expectErr: "given twice"},
		{name: "not a number", tokens: []string{"visit=abc"}, expectErr: "not a valid number"},
		{name: "inverted range", tokens: []string{"visit=5..3"}, expectErr: "is empty"},
		{name: "huge range", tokens: []string{"visit=0..1000000"}, expectErr: "more than"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Act ---
			tmpl, err := ParseGroup(tc.tokens, testSchema)

			// --- Assert ---
			if tc.expectErr != "" {
				var pe *ParseError
				require.True(t, errors.As(err, &pe), "expected a ParseError, got %v", err)
				assert.Contains(t, err.Error(), tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantKeys, tmpl.Keys())
			for key, want := range tc.wantValues {
				got := tmpl.Values(key)
				require.Len(t, got, len(want))
				for i := range want {
					assert.True(t, want[i].RawEquals(got[i]), "%s[%d]: want %#v, got %#v", key, i, want[i], got[i])
				}
			}
		})
	}
}

func TestTemplate_Matches(t *testing.T) {
	tmpl, err := ParseGroup([]string{"visit=1^2", "filter=g"}, testSchema)
	require.NoError(t, err)

	id := func(visit int64, filter string) ID {
		return NewID(
			Pair{Key: "visit", Value: cty.NumberIntVal(visit)},
			Pair{Key: "filter", Value: cty.StringVal(filter)},
			Pair{Key: "raft", Value: cty.StringVal("0,3")},
		)
	}

	assert.True(t, tmpl.Matches(id(1, "g")))
	assert.True(t, tmpl.Matches(id(2, "g")))
	assert.False(t, tmpl.Matches(id(3, "g")))
	assert.False(t, tmpl.Matches(id(1, "r")))
	assert.False(t, tmpl.Matches(NewID(Pair{Key: "visit", Value: cty.NumberIntVal(1)})))
	assert.Equal(t, "visit=1^2 filter=g", tmpl.String())
}

type stubLookup struct{}

func (stubLookup) DatasetPath(datasetType string, id ID) (string, error) {
	return datasetType + "/" + id.String(), nil
}

func TestRef_Lookup(t *testing.T) {
	id := NewID(Pair{Key: "visit", Value: cty.NumberIntVal(7)})

	ref := NewRef(id, stubLookup{})
	path, err := ref.Lookup("raw")
	require.NoError(t, err)
	assert.Equal(t, "raw/visit=7", path)
	assert.True(t, ref.ID().Equal(id))

	_, err = NewRef(id, nil).Lookup("raw")
	require.Error(t, err)
}
