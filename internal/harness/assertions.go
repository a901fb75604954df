package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/wellbeing/internal/stub"
)

// AssertionError is returned when an assertion fails.
// It includes the ledger to help debug the failure.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Ledger   []LedgerEntry // Every call, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nCalls:\n")
	if len(e.Ledger) == 0 {
		fmt.Fprintf(&buf, "  (none)\n")
	}
	for _, entry := range e.Ledger {
		fmt.Fprintf(&buf, "  [%d] %v\n", entry.Seq, entry.Args)
	}

	return buf.String()
}

func evaluateAssertion(s *stub.Stub, a Assertion, ledger []LedgerEntry) error {
	switch a.Type {
	case AssertCalledTimes:
		return assertCalledTimes(s, a, ledger)
	case AssertCalledWith:
		return assertCalledWith(s, a, ledger)
	case AssertCallArgs:
		return assertCallArgs(s, a, ledger)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertCalledTimes(s *stub.Stub, a Assertion, ledger []LedgerEntry) error {
	if s.CalledTimes(*a.Count) {
		return nil
	}
	return &AssertionError{
		Type:     AssertCalledTimes,
		Expected: fmt.Sprintf("%d calls", *a.Count),
		Actual:   fmt.Sprintf("%d calls", s.CallCount()),
		Ledger:   ledger,
	}
}

func assertCalledWith(s *stub.Stub, a Assertion, ledger []LedgerEntry) error {
	pattern, err := DecodePattern(a.Args)
	if err != nil {
		return err
	}
	if s.CalledWith(patternArgs(pattern)...) != a.Not {
		return nil
	}

	expected := "a call matching " + pattern.String()
	actual := "no matching call"
	if a.Not {
		expected = "no call matching " + pattern.String()
		actual = "a matching call"
	}
	return &AssertionError{Type: AssertCalledWith, Expected: expected, Actual: actual, Ledger: ledger}
}

func assertCallArgs(s *stub.Stub, a Assertion, ledger []LedgerEntry) error {
	var (
		args []any
		ok   bool
		at   = "last call"
	)
	if a.Index != nil {
		args, ok = s.CallArgs(*a.Index)
		at = fmt.Sprintf("call %d", *a.Index)
	} else {
		args, ok = s.CallArgs()
	}

	switch {
	case a.Absent && ok:
		return &AssertionError{Type: AssertCallArgs, Expected: "no " + at, Actual: fmt.Sprintf("%v", args), Ledger: ledger}
	case a.Absent:
		return nil
	case !ok:
		return &AssertionError{Type: AssertCallArgs, Expected: fmt.Sprintf("%s with args %v", at, a.Args), Actual: "no such call", Ledger: ledger}
	case a.Args != nil && !valuesEqual(a.Args, args):
		return &AssertionError{Type: AssertCallArgs, Expected: fmt.Sprintf("%s with args %v", at, a.Args), Actual: fmt.Sprintf("%v", args), Ledger: ledger}
	}
	return nil
}
