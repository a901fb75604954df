package stub

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Matcher decides whether one argument position matches.
// It is a sealed interface: only the constructors in this file produce
// Matchers, so Matches can handle every kind exhaustively.
type Matcher interface {
	matcher() // Sealed
	String() string
}

// Kind is the runtime kind checked by OfType.
type Kind int

const (
	// KindString matches any value whose underlying kind is string.
	KindString Kind = iota
	// KindNumber matches every integer and float kind, and json.Number.
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

type anyDefined struct{}

func (anyDefined) matcher()       {}
func (anyDefined) String() string { return "<any>" }

type ofType struct {
	kind Kind
}

func (ofType) matcher()         {}
func (m ofType) String() string { return "<" + m.kind.String() + ">" }

type literal struct {
	value any
}

func (literal) matcher()         {}
func (m literal) String() string { return fmt.Sprintf("%#v", m.value) }

// numeric keeps the pattern value plus its parsed float and, when the value
// has a leading integer part, the parsed integer. exact is set when the
// whole value is an integer, so integers compare without float rounding.
type numeric struct {
	value    any
	float    float64
	whole    float64
	hasWhole bool
	exact    exactInt
	isInt    bool
	isString bool
}

// exactInt is an integer of any Go integer kind by sign and magnitude.
type exactInt struct {
	neg bool
	mag uint64
}

func (numeric) matcher()         {}
func (m numeric) String() string { return fmt.Sprintf("~%v", m.value) }

type partial struct {
	fields map[string]any
}

func (partial) matcher() {}

func (m partial) String() string {
	keys := make([]string, 0, len(m.fields))
	for k := range m.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%#v", k, m.fields[k]))
	}
	return "{" + strings.Join(parts, " ") + " ...}"
}

// Sentinels usable directly in WithArgs and CalledWith.
var (
	Any        Matcher = AnyDefined()
	StringType Matcher = OfType(KindString)
	NumberType Matcher = OfType(KindNumber)
)

// AnyDefined matches any argument that is present and not nil.
func AnyDefined() Matcher {
	return anyDefined{}
}

// OfType matches any argument of the given runtime kind.
func OfType(kind Kind) Matcher {
	return ofType{kind: kind}
}

// Literal matches an argument exactly equal to v.
// Maps and slices are equal only to themselves.
func Literal(v any) Matcher {
	return literal{value: v}
}

// Numeric matches an argument exactly equal to v, or numerically equal to
// it. A numeric string v coerces only against number arguments; a number v
// also accepts fully numeric strings. Two integers compare exactly. If v is
// neither a number nor a decimal string it degrades to Literal.
func Numeric(v any) Matcher {
	f, ok := parseNumeric(v)
	if !ok {
		return literal{value: v}
	}
	m := numeric{value: v, float: f, isString: isString(v)}
	m.whole, m.hasWhole = integerPart(v)
	m.exact, m.isInt = exactInteger(v)
	return m
}

// Partial matches an argument exactly equal to fields, or any map holding
// every key of fields with an exactly equal value. Extra keys are ignored
// and nested values are not compared recursively.
func Partial(fields map[string]any) Matcher {
	return partial{fields: fields}
}

// Infer classifies a plain pattern value: Matchers pass through, numbers and
// numeric strings become Numeric, maps with string keys become Partial and
// everything else becomes Literal.
func Infer(v any) Matcher {
	if m, ok := v.(Matcher); ok {
		return m
	}
	if _, ok := parseNumeric(v); ok {
		return Numeric(v)
	}
	if fields, ok := stringKeyedMap(v); ok {
		return Partial(fields)
	}
	return Literal(v)
}

// Pattern is the ordered list of matchers of one expectation.
type Pattern []Matcher

// NewPattern builds a Pattern by passing every value through Infer.
func NewPattern(values ...any) Pattern {
	p := make(Pattern, len(values))
	for i, v := range values {
		p[i] = Infer(v)
	}
	return p
}

func (p Pattern) String() string {
	parts := make([]string, len(p))
	for i, m := range p {
		parts[i] = m.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Matches reports whether args satisfy every position of pattern.
// Arguments past the end of pattern are unconstrained.
func Matches(pattern Pattern, args []any) bool {
	for i, m := range pattern {
		var arg any
		present := i < len(args)
		if present {
			arg = args[i]
		}
		if !matchOne(m, arg, present) {
			return false
		}
	}
	return true
}

func matchOne(m Matcher, arg any, present bool) bool {
	switch m := m.(type) {
	case anyDefined:
		return present && !isNil(arg)
	case ofType:
		return present && hasKind(arg, m.kind)
	case literal:
		return present && equal(m.value, arg)
	case numeric:
		if !present {
			return false
		}
		if equal(m.value, arg) {
			return true
		}
		if m.isString && isString(arg) {
			return false
		}
		if m.isInt {
			if n, ok := exactInteger(arg); ok {
				return n == m.exact
			}
		}
		f, ok := parseNumeric(arg)
		if !ok {
			return false
		}
		return (m.hasWhole && f == m.whole) || f == m.float
	case partial:
		if !present {
			return false
		}
		if equal(m.fields, arg) {
			return true
		}
		return containsFields(arg, m.fields)
	default:
		panic(fmt.Sprintf("stub: unknown matcher %T", m))
	}
}

// findFirstMatch returns the lowest-index expectation matching args.
func findFirstMatch(expectations []Expectation, args []any) (Expectation, bool) {
	for _, e := range expectations {
		if Matches(e.Pattern, args) {
			return e, true
		}
	}
	return Expectation{}, false
}

// isNil treats typed nil pointers, maps, slices, funcs, chans and
// interfaces as nil.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

func hasKind(v any, kind Kind) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(json.Number); ok {
		return kind == KindNumber
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.String:
		return kind == KindString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return kind == KindNumber
	}
	return false
}

// equal is strict equality: identical dynamic types and equal values.
// Maps and slices compare by identity, funcs only when both are nil.
func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map:
		return va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Slice:
		return va.UnsafePointer() == vb.UnsafePointer() && va.Len() == vb.Len()
	case reflect.Func:
		return va.IsNil() && vb.IsNil()
	}
	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	return va.Equal(vb)
}

// parseNumeric returns the float value of a number, json.Number or a string
// that parses fully as a finite float.
func parseNumeric(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	var f float64
	switch n := v.(type) {
	case json.Number:
		if !isDecimal(string(n)) {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			f = float64(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			f = float64(rv.Uint())
		case reflect.Float32, reflect.Float64:
			f = rv.Float()
		case reflect.String:
			s := strings.TrimSpace(rv.String())
			if !isDecimal(s) {
				return 0, false
			}
			parsed, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return 0, false
			}
			f = parsed
		default:
			return 0, false
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// isDecimal reports whether s is spelled with decimal digits, sign, point
// and exponent only. ParseFloat also takes hex, underscores and Inf, which
// are not numbers here.
func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789+-.eE", r) {
			return false
		}
	}
	return true
}

// isString reports whether v is a string other than a json.Number.
func isString(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(json.Number); ok {
		return false
	}
	return reflect.ValueOf(v).Kind() == reflect.String
}

// exactInteger returns v as an exactInt when v is an integer kind, or a
// json.Number or string holding a base-10 integer.
func exactInteger(v any) (exactInt, bool) {
	if v == nil {
		return exactInt{}, false
	}
	var s string
	if n, ok := v.(json.Number); ok {
		s = string(n)
	} else {
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n := rv.Int()
			if n < 0 {
				return exactInt{neg: true, mag: uint64(-n)}, true
			}
			return exactInt{mag: uint64(n)}, true
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return exactInt{mag: rv.Uint()}, true
		case reflect.String:
			s = rv.String()
		default:
			return exactInt{}, false
		}
	}

	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if !isDecimal(s) {
		return exactInt{}, false
	}
	mag, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return exactInt{}, false
	}
	return exactInt{neg: neg && mag != 0, mag: mag}, true
}

// integerPart returns the leading integer of v: truncation for numbers,
// the longest sign-and-digits prefix for strings.
func integerPart(v any) (float64, bool) {
	var s string
	switch n := v.(type) {
	case json.Number:
		s = string(n)
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.String {
			f, ok := parseNumeric(v)
			if !ok {
				return 0, false
			}
			return math.Trunc(f), true
		}
		s = rv.String()
	}

	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// stringKeyedMap copies any map with string keys into a map[string]any.
// map[string]any is returned as-is so identity comparison still works.
func stringKeyedMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, m != nil
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func containsFields(arg any, fields map[string]any) bool {
	if isNil(arg) {
		return false
	}
	rv := reflect.ValueOf(arg)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return false
	}
	keyType := rv.Type().Key()
	for k, want := range fields {
		got := rv.MapIndex(reflect.ValueOf(k).Convert(keyType))
		if !got.IsValid() {
			return false
		}
		if !equal(want, got.Interface()) {
			return false
		}
	}
	return true
}
