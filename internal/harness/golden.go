package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// LedgerSnapshot is the part of a result that golden files pin down. The
// run ID is left out so snapshots are reproducible.
type LedgerSnapshot struct {
	ScenarioName string
	Pass         bool
	Expectations []string
	Ledger       []LedgerEntry
	Errors       []string
}

// Snapshot builds the golden snapshot of a result.
func Snapshot(result *Result) LedgerSnapshot {
	return LedgerSnapshot{
		ScenarioName: result.Scenario,
		Pass:         result.Pass,
		Expectations: result.Expectations,
		Ledger:       result.Ledger,
		Errors:       result.Errors,
	}
}

// toCanonicalMap converts the snapshot to plain maps and slices for
// MarshalCanonical.
func (s LedgerSnapshot) toCanonicalMap() map[string]any {
	ledger := make([]any, len(s.Ledger))
	for i, entry := range s.Ledger {
		m := map[string]any{
			"seq":     entry.Seq,
			"args":    entry.Args,
			"matched": entry.Matched,
		}
		if entry.Matched {
			m["value"] = entry.Value
		}
		ledger[i] = m
	}

	expectations := make([]any, len(s.Expectations))
	for i, e := range s.Expectations {
		expectations[i] = e
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"pass":          s.Pass,
		"expectations":  expectations,
		"ledger":        ledger,
	}
	if len(s.Errors) > 0 {
		errs := make([]any, len(s.Errors))
		for i, e := range s.Errors {
			errs[i] = e
		}
		result["errors"] = errs
	}
	return result
}

// MarshalJSON renders the snapshot canonically.
func (s LedgerSnapshot) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its ledger against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(result).MarshalJSON()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
