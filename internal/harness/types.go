package harness

import "github.com/roach88/wellbeing/internal/stub"

// LedgerEntry is one call made by a scenario and how the stub answered it.
type LedgerEntry struct {
	Seq     int64 `json:"seq"`
	Args    []any `json:"args"`
	Matched bool  `json:"matched"`
	Value   any   `json:"value,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// RunID identifies this run in logs. It is not part of golden snapshots.
	RunID string `json:"run_id"`

	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// Pass is true when every call expectation and assertion held.
	Pass bool `json:"pass"`

	// Errors lists every failed check. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Expectations are the registered patterns, rendered.
	Expectations []string `json:"expectations"`

	// Ledger holds every call in order.
	Ledger []LedgerEntry `json:"ledger"`
}

// NewResult creates a new passing result.
func NewResult(runID, scenario string) *Result {
	return &Result{
		RunID:        runID,
		Scenario:     scenario,
		Pass:         true,
		Errors:       []string{},
		Expectations: []string{},
		Ledger:       []LedgerEntry{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// record appends a call to the ledger. A database result is stored as its
// rows so the ledger stays plain data.
func (r *Result) record(seq int64, args []any, value any, matched bool) {
	if dr, ok := value.(*stub.DatabaseResult); ok {
		value = map[string]any{"rows": rowsAsAny(dr.RowsOfObjects())}
	}
	r.Ledger = append(r.Ledger, LedgerEntry{Seq: seq, Args: args, Matched: matched, Value: value})
}

func rowsAsAny(rows []map[string]any) []any {
	out := make([]any, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	return out
}
