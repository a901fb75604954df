package stub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type email string

func TestMatches_EmptyPatternMatchesAnything(t *testing.T) {
	assert.True(t, Matches(nil, nil))
	assert.True(t, Matches(Pattern{}, []any{1, "a", nil}))
}

func TestMatches_AnyExcludesNilAndAbsent(t *testing.T) {
	var nilPtr *int
	var nilMap map[string]any

	tests := []struct {
		name string
		args []any
		want bool
	}{
		{"zero", []any{0}, true},
		{"empty string", []any{""}, true},
		{"empty map", []any{map[string]any{}}, true},
		{"false", []any{false}, true},
		{"nil", []any{nil}, false},
		{"typed nil pointer", []any{nilPtr}, false},
		{"nil map", []any{nilMap}, false},
		{"omitted", []any{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(Pattern{Any}, tt.args))
		})
	}
}

func TestMatches_OfType(t *testing.T) {
	tests := []struct {
		name    string
		matcher Matcher
		arg     any
		want    bool
	}{
		{"string matches string", StringType, "SELECT 1", true},
		{"string matches named string", StringType, email("a@b.c"), true},
		{"string rejects number", StringType, 5, false},
		{"string rejects nil", StringType, nil, false},
		{"number matches int", NumberType, 5, true},
		{"number matches int64", NumberType, int64(5), true},
		{"number matches uint8", NumberType, uint8(5), true},
		{"number matches float64", NumberType, 2.5, true},
		{"number matches json.Number", NumberType, json.Number("7"), true},
		{"number rejects numeric string", NumberType, "5", false},
		{"number rejects bool", NumberType, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(Pattern{tt.matcher}, []any{tt.arg}))
		})
	}
}

func TestMatches_OfTypeAbsentFails(t *testing.T) {
	assert.False(t, Matches(Pattern{StringType}, nil))
}

func TestMatches_LiteralExactEquality(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	row := map[string]any{"id": 1}
	list := []int{1, 2, 3}

	assert.True(t, Matches(Pattern{Literal("a")}, []any{"a"}))
	assert.True(t, Matches(Pattern{Literal(true)}, []any{true}))
	assert.True(t, Matches(Pattern{Literal(now)}, []any{now}))
	assert.True(t, Matches(Pattern{Literal(nil)}, []any{nil}))
	assert.True(t, Matches(Pattern{Literal(row)}, []any{row}), "same map is identical")
	assert.True(t, Matches(Pattern{Literal(list)}, []any{list}), "same slice is identical")

	assert.False(t, Matches(Pattern{Literal("a")}, []any{"b"}))
	assert.False(t, Matches(Pattern{Literal(1)}, []any{int64(1)}), "literal is type-strict")
	assert.False(t, Matches(Pattern{Literal("51")}, []any{51}), "literal never coerces")
	assert.False(t, Matches(Pattern{Literal(map[string]any{"id": 1})}, []any{row}), "distinct maps are not identical")
	assert.False(t, Matches(Pattern{Literal([]int{1, 2, 3})}, []any{list}), "distinct slices are not identical")
	assert.False(t, Matches(Pattern{Literal(list[:2])}, []any{list}), "same backing array but different length")
	assert.False(t, Matches(Pattern{Literal(nil)}, []any{}), "nil does not match an absent argument")
}

func TestMatches_NumericCoercionSymmetry(t *testing.T) {
	tests := []struct {
		name    string
		pattern any
		arg     any
		want    bool
	}{
		{"string pattern, int arg", "51", 51, true},
		{"int pattern, string arg", 51, "51", true},
		{"int pattern, int64 arg", 51, int64(51), true},
		{"int pattern, float arg", 51, 51.0, true},
		{"float string pattern, float arg", "2.5", 2.5, true},
		{"float pattern, string arg", 2.5, "2.5", true},
		{"padded string pattern", " 7 ", 7, true},
		{"decimal string matches its integer part", "51.7", 51, true},
		{"decimal string matches its float", "51.7", 51.7, true},
		{"json.Number pattern", json.Number("12"), 12, true},
		{"different numbers", "51", 52, false},
		{"non-numeric arg", 51, "fifty-one", false},
		{"partially numeric arg", 51, "51abc", false},
		{"nil arg", 0, nil, false},
		{"bool arg", 1, true, false},
		{"string pattern, other numeric string", "1.5", "1", false},
		{"string pattern, other spelling", "51", "51.0", false},
		{"string pattern, padded string arg", "51", " 51", false},
		{"string pattern, same string", "51", "51", true},
		{"int pattern, padded string arg", 51, " 51", true},
		{"int64 above 2^53", int64(9007199254740993), int64(9007199254740992), false},
		{"int64 above 2^53, same value", int64(9007199254740993), uint64(9007199254740993), true},
		{"json.Number above 2^53", json.Number("9007199254740993"), int64(9007199254740992), false},
		{"uint64 max vs neighbour", uint64(18446744073709551615), uint64(18446744073709551614), false},
		{"negative int", -3, "-3", true},
		{"negative vs positive", -3, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Infer(tt.pattern)
			_, isNumeric := m.(numeric)
			assert.True(t, isNumeric, "Infer(%#v) should be numeric", tt.pattern)
			assert.Equal(t, tt.want, Matches(Pattern{m}, []any{tt.arg}))
		})
	}
}

func TestInfer_NonDecimalNumberSyntaxIsLiteral(t *testing.T) {
	tests := []struct {
		pattern string
		arg     any
	}{
		{"0x1p4", 16},
		{"0x10", 16},
		{"1_000", 1000},
		{"Inf", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			m := Infer(tt.pattern)
			_, isLiteral := m.(literal)
			assert.True(t, isLiteral)
			assert.False(t, Matches(Pattern{m}, []any{tt.arg}))
			assert.True(t, Matches(Pattern{m}, []any{tt.pattern}))
		})
	}

	assert.False(t, Matches(Pattern{Infer(16)}, []any{"0x10"}), "hex string is not a number argument")
	_, isLiteral := Numeric("0x10").(literal)
	assert.True(t, isLiteral)
}

func TestNumeric_NonNumericDegradesToLiteral(t *testing.T) {
	m := Numeric("abc")
	_, isLiteral := m.(literal)
	assert.True(t, isLiteral)
	assert.True(t, Matches(Pattern{m}, []any{"abc"}))
}

func TestMatches_PartialShapeSubset(t *testing.T) {
	nested := map[string]any{"city": "Helsinki"}

	tests := []struct {
		name    string
		pattern map[string]any
		arg     any
		want    bool
	}{
		{"subset with extra keys", map[string]any{"id": 1}, map[string]any{"id": 1, "extra": "x"}, true},
		{"different value", map[string]any{"id": 1}, map[string]any{"id": 2}, false},
		{"missing key", map[string]any{"id": 1}, map[string]any{"email": "a"}, false},
		{"empty pattern matches any map", map[string]any{}, map[string]any{"id": 1}, true},
		{"typed map values", map[string]any{"email": "a@b.c"}, map[string]string{"email": "a@b.c", "name": "A"}, true},
		{"values are type-strict", map[string]any{"id": 1}, map[string]any{"id": int64(1)}, false},
		{"nested map by identity", map[string]any{"address": nested}, map[string]any{"address": nested}, true},
		{"nested map not compared deeply", map[string]any{"address": map[string]any{"city": "Helsinki"}}, map[string]any{"address": nested}, false},
		{"nil value present", map[string]any{"deleted": nil}, map[string]any{"deleted": nil}, true},
		{"non-map arg", map[string]any{"id": 1}, "id=1", false},
		{"nil arg", map[string]any{"id": 1}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(Pattern{Partial(tt.pattern)}, []any{tt.arg}))
		})
	}
}

func TestInfer_Classification(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  Matcher
	}{
		{"int", 5, numeric{}},
		{"numeric string", "5", numeric{}},
		{"plain string", "SELECT", literal{}},
		{"empty string", "", literal{}},
		{"NaN string", "NaN", literal{}},
		{"bool", true, literal{}},
		{"nil", nil, literal{}},
		{"map", map[string]any{"a": 1}, partial{}},
		{"typed map", map[string]int{"a": 1}, partial{}},
		{"int-keyed map", map[int]any{1: 1}, literal{}},
		{"slice", []any{1}, literal{}},
		{"matcher passes through", Any, anyDefined{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.IsType(t, tt.want, Infer(tt.value))
		})
	}
}

func TestMatches_TrailingArgumentsUnconstrained(t *testing.T) {
	pattern := NewPattern(StringType, 5)
	args := []any{"SELECT", 5}

	assert.True(t, Matches(pattern, args))
	assert.True(t, Matches(pattern, append(args, nil, "extra", map[string]any{})))
	assert.False(t, Matches(pattern, []any{"SELECT", 6, "extra"}))
}

func TestMatches_AllPositionsMustSucceed(t *testing.T) {
	pattern := NewPattern(StringType, 1, Any, map[string]any{"ok": true})

	assert.True(t, Matches(pattern, []any{"q", "1", 0, map[string]any{"ok": true, "n": 2}}))
	assert.False(t, Matches(pattern, []any{"q", "1", 0, map[string]any{"ok": false}}))
	assert.False(t, Matches(pattern, []any{"q", "1", nil, map[string]any{"ok": true}}))
	assert.False(t, Matches(pattern, []any{"q", "1", 0}))
}

func TestFindFirstMatch_RegistrationOrderWins(t *testing.T) {
	expectations := []Expectation{
		{Pattern: NewPattern(1), Value: "narrow"},
		{Pattern: NewPattern(Any), Value: "broad"},
	}

	e, ok := findFirstMatch(expectations, []any{1})
	assert.True(t, ok)
	assert.Equal(t, "narrow", e.Value)

	e, ok = findFirstMatch(expectations, []any{2})
	assert.True(t, ok)
	assert.Equal(t, "broad", e.Value)

	_, ok = findFirstMatch(expectations, []any{})
	assert.False(t, ok)
}

func TestPattern_String(t *testing.T) {
	p := NewPattern(Any, StringType, 5, Literal("x"), map[string]any{"b": 2, "a": 1})
	assert.Equal(t, `(<any>, <string>, ~5, "x", {a:1 b:2 ...})`, p.String())
}
