package testutil

// FixedRunIDs generates the same run ID every time.
//
// Log lines and results of a scenario run then carry a known ID, so tests
// can compare whole results.
//
// Thread-safety: FixedRunIDs is stateless and safe for concurrent use.
type FixedRunIDs struct {
	id string
}

// NewFixedRunIDs creates a generator returning id. If id is empty,
// Generate returns "test-run".
func NewFixedRunIDs(id string) *FixedRunIDs {
	if id == "" {
		id = "test-run"
	}
	return &FixedRunIDs{id: id}
}

// Generate returns the fixed ID.
func (g *FixedRunIDs) Generate() string {
	return g.id
}
