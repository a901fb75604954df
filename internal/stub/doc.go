// Package stub provides a call-recording, argument-matching test double.
//
// A Stub stands in for a collaborator (typically a database query runner)
// while the code under test runs. It records every invocation in an
// append-only ledger and answers each call from an ordered list of
// expectations.
//
// # Configuration
//
//	run := stub.New()
//	run.WithArgs(stub.StringType, 5, stub.Any).Returns(rows)
//	err := run.WithArgs(stub.StringType, userID).ReturnsDatabaseResult([]map[string]any{
//	    {"id": 1, "email": "a@b.c"},
//	})
//
// # Matching
//
// A pattern is an ordered list of matchers, one per constrained argument.
// Arguments past the end of the pattern are never constrained. The first
// registered expectation whose pattern matches wins, regardless of how
// specific a later expectation is.
//
// Values passed to WithArgs that are not already a Matcher are classified
// once, at registration, by Infer:
//
//   - numbers and fully numeric strings become Numeric (so 51 matches "51")
//   - map[string]any becomes Partial (one-level subset match)
//   - everything else becomes Literal (exact equality)
//
// # Assertions
//
// CalledTimes, CalledWith and CallArgs inspect the ledger. An invocation
// that matches no expectation is not an error: Invoke returns nil and
// Resolve reports ok == false.
package stub
