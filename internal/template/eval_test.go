package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenbar/lumen/internal/errors"
)

func evalBindings() *Bindings {
	b := NewBindings()
	b.Variables = map[string]interface{}{
		"count": 3,
		"ratio": 0.5,
		"name":  "lumen",
		"ready": true,
		"cpu": map[string]interface{}{
			"usage": 42.5,
			"cores": 8,
		},
		"tags": []interface{}{"a", "b"},
	}
	b.StringSubstitutions = map[string]string{
		"sep": " | ",
	}
	return b
}

func TestEvaluate_Literals(t *testing.T) {
	tests := []struct {
		expr string
		want interface{}
	}{
		{"5", float64(5)},
		{"3.25", 3.25},
		{`"hello"`, "hello"},
		{"'hello'", "hello"},
		{"`hello`", "hello"},
		{`"say \"hi\""`, `say "hi"`},
		{`"line\nbreak"`, "line\nbreak"},
		{"true", true},
		{"false", false},
		{"null", nil},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			value, err := Evaluate(tt.expr, NewBindings())
			require.NoError(t, err)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestEvaluate_ArrayLiteral(t *testing.T) {
	value, err := Evaluate("[1, 2, 3]", NewBindings())
	require.NoError(t, err)
	assert.Equal(t, []interface{}{float64(1), float64(2), float64(3)}, value)
}

func TestEvaluate_IdentifierLookup(t *testing.T) {
	b := evalBindings()

	value, err := Evaluate("name", b)
	require.NoError(t, err)
	assert.Equal(t, "lumen", value)

	value, err = Evaluate("sep", b)
	require.NoError(t, err)
	assert.Equal(t, " | ", value)

	// Variables win over string substitutions of the same name.
	b.StringSubstitutions["name"] = "shadowed"
	value, err = Evaluate("name", b)
	require.NoError(t, err)
	assert.Equal(t, "lumen", value)
}

func TestEvaluate_MemberAccess(t *testing.T) {
	b := evalBindings()

	value, err := Evaluate("cpu.usage", b)
	require.NoError(t, err)
	assert.Equal(t, 42.5, value)

	_, err = Evaluate("cpu.missing", b)
	require.Error(t, err)
	assert.True(t, errors.IsEvalError(err))
}

func TestEvaluate_StructMemberAccess(t *testing.T) {
	type stats struct {
		Usage float64
	}
	b := NewBindings()
	b.Variables["memory"] = &stats{Usage: 61.5}

	value, err := Evaluate("memory.Usage", b)
	require.NoError(t, err)
	assert.Equal(t, 61.5, value)
}

func TestEvaluate_Equality(t *testing.T) {
	b := evalBindings()

	tests := []struct {
		expr string
		want bool
	}{
		{"count === 3", true},
		{"count === 4", false},
		{"count !== 4", true},
		{`name === "lumen"`, true},
		{`name === "other"`, false},
		{"ready === true", true},
		{"null === null", true},
		// Differing kinds are never equal, even where loose JS would coerce.
		{`count == "3"`, false},
		{"ready == 1", false},
		{"count == 3", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			value, err := Evaluate(tt.expr, b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestEvaluate_NumericWidthsCompareEqual(t *testing.T) {
	b := NewBindings()
	b.Variables["small"] = int32(7)
	b.Variables["big"] = float64(7)

	value, err := Evaluate("small === big", b)
	require.NoError(t, err)
	assert.Equal(t, true, value)
}

func TestEvaluate_Relational(t *testing.T) {
	b := evalBindings()

	tests := []struct {
		expr string
		want bool
	}{
		{"count < 5", true},
		{"count <= 3", true},
		{"count > 5", false},
		{"ratio >= 0.5", true},
		{`name < "z"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			value, err := Evaluate(tt.expr, b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, value)
		})
	}

	_, err := Evaluate(`count < "5"`, b)
	require.Error(t, err)
	assert.True(t, errors.IsEvalError(err))
}

func TestEvaluate_LogicalOperators(t *testing.T) {
	b := evalBindings()

	tests := []struct {
		expr string
		want interface{}
	}{
		{"ready && count", 3},
		{"false && count", false},
		{`"" || name`, "lumen"},
		{"name || count", "lumen"},
		{"!ready", false},
		{"!0", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			value, err := Evaluate(tt.expr, b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestEvaluate_Ternary(t *testing.T) {
	b := evalBindings()

	value, err := Evaluate(`count > 2 ? "high" : "low"`, b)
	require.NoError(t, err)
	assert.Equal(t, "high", value)

	value, err = Evaluate(`count > 5 ? "high" : "low"`, b)
	require.NoError(t, err)
	assert.Equal(t, "low", value)
}

func TestEvaluate_Parentheses(t *testing.T) {
	b := evalBindings()

	value, err := Evaluate("(count < 5) === ready", b)
	require.NoError(t, err)
	assert.Equal(t, true, value)
}

func TestEvaluate_OpaqueNameYieldsPlaceholder(t *testing.T) {
	b := NewBindings()
	b.OpaquePlaceholders["onClick"] = func() {}

	value, err := Evaluate("onClick", b)
	require.NoError(t, err)
	assert.Equal(t, Placeholder{Name: "onClick"}, value)
}

func TestEvaluate_Errors(t *testing.T) {
	b := evalBindings()

	tests := []struct {
		name string
		expr string
	}{
		{"unknown identifier", "nope"},
		{"function call", "cpu.usage(1)"},
		{"trailing garbage", "count 5"},
		{"missing ternary colon", "ready ? 1"},
		{"unterminated array", "[1, 2"},
		{"empty expression", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.expr, b)
			require.Error(t, err)

			var eerr *errors.EvalError
			require.ErrorAs(t, err, &eerr)
			assert.Equal(t, tt.expr, eerr.Expression)
		})
	}
}

func TestSplitLoopExpression(t *testing.T) {
	name, iterable, err := SplitLoopExpression("item of items")
	require.NoError(t, err)
	assert.Equal(t, "item", name)
	assert.Equal(t, "items", iterable)

	name, iterable, err = SplitLoopExpression("w of config.widgets")
	require.NoError(t, err)
	assert.Equal(t, "w", name)
	assert.Equal(t, "config.widgets", iterable)

	_, _, err = SplitLoopExpression("items")
	require.Error(t, err)

	_, _, err = SplitLoopExpression("1 of items")
	require.Error(t, err)

	_, _, err = SplitLoopExpression("item of")
	require.Error(t, err)
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy(0))
	assert.False(t, Truthy(0.0))
	assert.False(t, Truthy(""))

	assert.True(t, Truthy(true))
	assert.True(t, Truthy(1))
	assert.True(t, Truthy(-1))
	assert.True(t, Truthy("0"))
	assert.True(t, Truthy([]interface{}{}))
	assert.True(t, Truthy(map[string]interface{}{}))
	assert.True(t, Truthy(Placeholder{Name: "x"}))
}

func TestStrictEquals(t *testing.T) {
	assert.True(t, StrictEquals(1, 1.0))
	assert.True(t, StrictEquals("a", "a"))
	assert.True(t, StrictEquals(nil, nil))
	assert.True(t, StrictEquals(Placeholder{Name: "x"}, Placeholder{Name: "x"}))

	assert.False(t, StrictEquals(1, "1"))
	assert.False(t, StrictEquals(nil, 0))
	assert.False(t, StrictEquals(true, 1))
	assert.False(t, StrictEquals(Placeholder{Name: "x"}, Placeholder{Name: "y"}))
}
