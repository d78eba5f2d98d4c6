package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// stubTarget is a minimal Target for tests.
type stubTarget struct {
	name      string
	newConfig func() *Config
}

func (s stubTarget) TargetName() string { return s.name }
func (s stubTarget) NewConfig() *Config {
	if s.newConfig == nil {
		return nil
	}
	return s.newConfig()
}

var (
	addTarget = stubTarget{name: "add", newConfig: func() *Config {
		return MustNew(NewField("addend", "amount to add", cty.Number, 3.1))
	}}
	multTarget = stubTarget{name: "mult", newConfig: func() *Config {
		return MustNew(NewField("multiplicand", "amount by which to multiply", cty.Number, 2.5))
	}}
	scaleTarget = stubTarget{name: "scale", newConfig: func() *Config {
		return MustNew(
			NewField("factor", "scale factor", cty.Number, 10).WithCheck(Range(0, 100)),
			NewField("label", "free text", cty.String, "x"),
		)
	}}
	noConfigTarget = stubTarget{name: "broken"}
)

func newAddMultConfig() *Config {
	return MustNew(
		NewConfigurableField("add", "", addTarget),
		NewConfigurableField("mult", "", multTarget),
	)
}

func TestNew(t *testing.T) {
	t.Run("keeps declaration order", func(t *testing.T) {
		cfg := MustNew(
			NewField("b", "", cty.String, "x"),
			NewField("a", "", cty.Number, 1),
			NewConfigurableField("c", "", addTarget),
		)
		assert.Equal(t, []string{"b", "a", "c"}, cfg.Names())
		assert.Len(t, cfg.Fields(), 2)
		assert.Len(t, cfg.Configurables(), 1)
	})

	t.Run("rejects duplicates and reserved names", func(t *testing.T) {
		_, err := New(NewField("a", "", cty.Number, 1), NewField("a", "", cty.Number, 2))
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "a", ve.Field)

		_, err = New(NewField(ReservedName, "", cty.String, "x"))
		require.ErrorAs(t, err, &ve)
	})

	t.Run("invalid default panics", func(t *testing.T) {
		assert.Panics(t, func() { NewField("f", "", cty.Number, "three") })
	})

	t.Run("target without config panics", func(t *testing.T) {
		assert.Panics(t, func() { NewConfigurableField("x", "", noConfigTarget) })
	})
}

func TestSet(t *testing.T) {
	testCases := []struct {
		name      string
		path      string
		value     any
		expectErr bool
	}{
		{name: "float into number", path: "add.addend", value: 1.1},
		{name: "int into number", path: "mult.multiplicand", value: 4},
		{name: "cty value", path: "add.addend", value: cty.NumberFloatVal(-3.5)},
		{name: "string into number", path: "add.addend", value: "1.1", expectErr: true},
		{name: "bool into number", path: "add.addend", value: true, expectErr: true},
		{name: "null into required", path: "add.addend", value: nil, expectErr: true},
		{name: "unknown field", path: "add.nope", value: 1, expectErr: true},
		{name: "unknown top-level", path: "nope", value: 1, expectErr: true},
		{name: "assign to configurable", path: "add", value: 1, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := newAddMultConfig()
			err := cfg.Set(tc.path, tc.value)
			if tc.expectErr {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSet_QualifiesNestedErrors(t *testing.T) {
	cfg := newAddMultConfig()
	err := cfg.Set("add.addend", "oops")

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "add.addend", ve.Field)
	assert.Contains(t, err.Error(), "expected number, got string")
}

func TestSet_Check(t *testing.T) {
	cfg := MustNew(NewConfigurableField("scale", "", scaleTarget))

	require.NoError(t, cfg.Set("scale.factor", 50))
	err := cfg.Set("scale.factor", 500)
	require.Error(t, err)
	assert.Equal(t, float64(50), cfg.Float("scale.factor"), "a rejected value must not be stored")
}

func TestTypedGetters(t *testing.T) {
	cfg := MustNew(
		NewField("f", "", cty.Number, 2.5),
		NewField("i", "", cty.Number, 7),
		NewField("s", "", cty.String, "hi"),
		NewField("b", "", cty.Bool, true),
		NewField("o", "", cty.String, nil).AsOptional(),
	)

	assert.Equal(t, 2.5, cfg.Float("f"))
	assert.Equal(t, int64(7), cfg.Int("i"))
	assert.Equal(t, "hi", cfg.String("s"))
	assert.True(t, cfg.Bool("b"))
	assert.Equal(t, "", cfg.String("o"))
	assert.Panics(t, func() { cfg.Float("missing") })
}

func TestRetarget(t *testing.T) {
	t.Run("replaces target and resets nested config", func(t *testing.T) {
		cfg := newAddMultConfig()
		require.NoError(t, cfg.Set("add.addend", 9.0))
		require.NoError(t, cfg.Set("mult.multiplicand", 0.9))

		add, ok := cfg.Configurable("add")
		require.True(t, ok)
		require.NoError(t, add.Retarget(scaleTarget))

		assert.Equal(t, "scale", add.Target().TargetName())
		assert.Equal(t, float64(10), cfg.Float("add.factor"))
		_, err := cfg.Get("add.addend")
		assert.Error(t, err)

		// Siblings are untouched.
		assert.Equal(t, 0.9, cfg.Float("mult.multiplicand"))
	})

	t.Run("rejects a target without config", func(t *testing.T) {
		cfg := newAddMultConfig()
		add, _ := cfg.Configurable("add")

		err := add.Retarget(noConfigTarget)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "add", add.Target().TargetName(), "failed retarget must leave the binding alone")

		require.Error(t, add.Retarget(nil))
	})

	t.Run("rejects retarget when frozen", func(t *testing.T) {
		cfg := newAddMultConfig()
		cfg.Freeze()
		add, _ := cfg.Configurable("add")

		require.Error(t, add.Retarget(multTarget))
		require.NoError(t, cfg.Set("add.addend", 1.0), "values stay assignable after freeze")
		require.Error(t, cfg.Add(NewField("late", "", cty.Number, 1)))
	})
}

func TestCopyAndEqual(t *testing.T) {
	a := newAddMultConfig()
	b := a.Copy()
	assert.True(t, a.Equal(b))

	require.NoError(t, b.Set("add.addend", 100))
	assert.False(t, a.Equal(b))
	assert.Equal(t, 3.1, a.Float("add.addend"), "copies must not share state")

	c := a.Copy()
	add, _ := c.Configurable("add")
	require.NoError(t, add.Retarget(scaleTarget))
	assert.False(t, a.Equal(c))

	a.Freeze()
	assert.False(t, a.Copy().Frozen())
}

func TestLookup(t *testing.T) {
	cfg := MustNew(NewConfigurableField("outer", "", stubTarget{name: "outer", newConfig: newAddMultConfig}))

	cf, err := cfg.Lookup("outer.mult")
	require.NoError(t, err)
	assert.Equal(t, "mult", cf.Target().TargetName())

	_, err = cfg.Lookup("outer.nope")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "outer.nope", ve.Field)
}

func TestFieldAt(t *testing.T) {
	cfg := newAddMultConfig()

	f, err := cfg.FieldAt("mult.multiplicand")
	require.NoError(t, err)
	assert.Equal(t, cty.Number, f.Type)

	_, err = cfg.FieldAt("add")
	require.Error(t, err)
	_, err = cfg.FieldAt("add.nope.deeper")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "add.nope", ve.Field)
}

func TestValidate(t *testing.T) {
	cfg := MustNew(NewField("req", "", cty.String, nil))
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.As(err, new(*ValidationError)))

	require.NoError(t, cfg.Set("req", "set"))
	require.NoError(t, cfg.Validate())
}

func TestDecode(t *testing.T) {
	type params struct {
		Factor float64 `cty:"factor"`
		Label  string  `cty:"label"`
		Other  int
	}

	cfg := scaleTarget.NewConfig()
	require.NoError(t, cfg.Set("factor", 12.5))

	var p params
	require.NoError(t, cfg.Decode(&p))
	assert.Equal(t, 12.5, p.Factor)
	assert.Equal(t, "x", p.Label)

	type bad struct {
		Missing string `cty:"missing"`
	}
	require.Error(t, cfg.Decode(&bad{}))
	require.Error(t, cfg.Decode(p))
}

func TestDecode_OptionalFields(t *testing.T) {
	cfg := MustNew(
		NewField("f", "", cty.Number, 3.1),
		NewField("datasetType", "", cty.String, nil).AsOptional(),
		NewField("limit", "", cty.Number, nil).AsOptional(),
	)

	t.Run("unset optional fields decode to zero values", func(t *testing.T) {
		var p struct {
			F           float64  `cty:"f"`
			DatasetType string   `cty:"datasetType"`
			Limit       *float64 `cty:"limit"`
		}
		p.DatasetType = "stale"

		require.NoError(t, cfg.Decode(&p))
		assert.Equal(t, 3.1, p.F)
		assert.Equal(t, "", p.DatasetType)
		assert.Nil(t, p.Limit)
	})

	t.Run("set optional fields decode", func(t *testing.T) {
		set := cfg.Copy()
		require.NoError(t, set.Set("datasetType", "raw"))
		require.NoError(t, set.Set("limit", 4))

		var p struct {
			DatasetType string   `cty:"datasetType"`
			Limit       *float64 `cty:"limit"`
		}
		require.NoError(t, set.Decode(&p))
		assert.Equal(t, "raw", p.DatasetType)
		require.NotNil(t, p.Limit)
		assert.Equal(t, 4.0, *p.Limit)
	})
}

func TestOneOf(t *testing.T) {
	check := OneOf("a", "b")
	assert.NoError(t, check(cty.StringVal("a")))
	assert.Error(t, check(cty.StringVal("c")))
}
