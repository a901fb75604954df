package harness

import (
	"encoding/json"
	"reflect"
)

// normalizeScenario rewrites json.Number values left by the CUE decoder into
// int or float64, matching what the YAML decoder produces.
func normalizeScenario(s *Scenario) {
	for i := range s.Expectations {
		e := &s.Expectations[i]
		normalizeSlice(e.Args)
		e.Returns = normalizeValue(e.Returns)
		e.Rows = normalizeValue(e.Rows)
	}
	for i := range s.Calls {
		c := &s.Calls[i]
		normalizeSlice(c.Args)
		c.Expect = normalizeValue(c.Expect)
		for _, row := range c.ExpectRows {
			normalizeMap(row)
		}
	}
	for i := range s.Assertions {
		normalizeSlice(s.Assertions[i].Args)
	}
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil && int64(int(n)) == n {
			return int(n)
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case []any:
		normalizeSlice(val)
		return val
	case map[string]any:
		normalizeMap(val)
		return val
	default:
		return v
	}
}

func normalizeSlice(s []any) {
	for i, v := range s {
		s[i] = normalizeValue(v)
	}
}

func normalizeMap(m map[string]any) {
	for k, v := range m {
		m[k] = normalizeValue(v)
	}
}

// valuesEqual compares scenario values structurally. Numbers compare by
// value across int and float types, since YAML yields int for 1 and
// float64 for 1.0.
func valuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	if ef, ok := toFloat(expected); ok {
		af, ok := toFloat(actual)
		return ok && ef == af
	}

	switch exp := expected.(type) {
	case []any:
		act := reflect.ValueOf(actual)
		if act.Kind() != reflect.Slice || act.Len() != len(exp) {
			return false
		}
		for i := range exp {
			if !valuesEqual(exp[i], act.Index(i).Interface()) {
				return false
			}
		}
		return true
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok || len(act) != len(exp) {
			return false
		}
		for k, ev := range exp {
			av, ok := act[k]
			if !ok || !valuesEqual(ev, av) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(expected, actual)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

// rowsEqual compares expected rows with the rows of a result.
func rowsEqual(expected []map[string]any, actual []map[string]any) bool {
	if len(expected) != len(actual) {
		return false
	}
	for i := range expected {
		if !valuesEqual(expected[i], actual[i]) {
			return false
		}
	}
	return true
}
