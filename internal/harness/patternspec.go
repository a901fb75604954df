package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/wellbeing/internal/stub"
)

// Pattern spec directives. A map whose only key is a directive builds that
// matcher; any other value goes through stub.Infer.
//
//	{$any: true}
//	{$type: string}       # or number
//	{$literal: "51"}      # exact equality, no numeric coercion
//	{$numeric: 51}
//	{$partial: {a: 1}}
const (
	directiveAny     = "$any"
	directiveType    = "$type"
	directiveLiteral = "$literal"
	directiveNumeric = "$numeric"
	directivePartial = "$partial"
)

// DecodeMatcher turns one pattern spec into a matcher.
func DecodeMatcher(spec any) (stub.Matcher, error) {
	m, ok := spec.(map[string]any)
	if !ok {
		return stub.Infer(spec), nil
	}

	var directives []string
	for k := range m {
		if strings.HasPrefix(k, "$") {
			directives = append(directives, k)
		}
	}
	if len(directives) == 0 {
		return stub.Infer(spec), nil
	}
	sort.Strings(directives)
	if len(m) != 1 {
		return nil, fmt.Errorf("pattern directive %s must be the only key", directives[0])
	}

	directive, arg := directives[0], m[directives[0]]
	switch directive {
	case directiveAny:
		if b, ok := arg.(bool); !ok || !b {
			return nil, fmt.Errorf("%s takes true, got %v", directive, arg)
		}
		return stub.Any, nil
	case directiveType:
		switch arg {
		case "string":
			return stub.StringType, nil
		case "number":
			return stub.NumberType, nil
		}
		return nil, fmt.Errorf("%s takes string or number, got %v", directive, arg)
	case directiveLiteral:
		return stub.Literal(arg), nil
	case directiveNumeric:
		return stub.Numeric(arg), nil
	case directivePartial:
		fields, ok := arg.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s takes a map, got %T", directive, arg)
		}
		return stub.Partial(fields), nil
	default:
		return nil, fmt.Errorf("unknown pattern directive %s", directive)
	}
}

// DecodePattern decodes a list of pattern specs.
func DecodePattern(specs []any) (stub.Pattern, error) {
	pattern := make(stub.Pattern, len(specs))
	for i, spec := range specs {
		m, err := DecodeMatcher(spec)
		if err != nil {
			return nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		pattern[i] = m
	}
	return pattern, nil
}
