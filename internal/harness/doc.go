// Package harness runs declarative stub scenarios.
//
// A scenario configures a fresh stub.Stub, calls it, and asserts on the
// recorded ledger, so matching rules can be pinned down in data files
// instead of Go tests.
//
// # Scenario Format
//
// Scenarios are YAML (.yaml, .yml) or CUE (.cue) files:
//
//	name: select_with_any
//	description: "Any matches every defined value"
//	expectations:
//	  - args: ["SELECT", {$any: true}]
//	    rows: [{id: 1}]
//	  - args: [{$type: number}]
//	    returns: "number"
//	calls:
//	  - args: ["SELECT", 7]
//	    expect_rows: [{id: 1}]
//	  - args: ["SELECT", null]
//	    expect_absent: true
//	assertions:
//	  - type: called_times
//	    count: 2
//	  - type: called_with
//	    args: [{$type: string}, 7]
//	  - type: call_args
//	    index: 0
//	    args: ["SELECT", 7]
//
// Expectation and called_with args are pattern specs: a plain value is
// classified by stub.Infer, and a single-key map naming a directive
// ($any, $type, $literal, $numeric, $partial) builds that matcher.
//
// # Assertion Types
//
//   - called_times: the stub was called exactly count times
//   - called_with: some call matches args (or none does, with not: true)
//   - call_args: the call at index (default last) had exactly args, or
//     does not exist with absent: true
//
// # Golden Snapshots
//
// AssertGolden and RunWithGolden compare a result's ledger against
// testdata/golden/{name}.golden, rendered with MarshalCanonical so the
// bytes are stable across runs.
package harness
