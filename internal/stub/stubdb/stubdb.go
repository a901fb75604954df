// Package stubdb adapts stub.Stub to the collaborator interfaces of the
// services, so tests can hand a stub where a database or hasher is expected.
package stubdb

import (
	"context"
	"fmt"

	"github.com/roach88/wellbeing/internal/database"
	"github.com/roach88/wellbeing/internal/stub"
)

// Runner is a database.Runner answering from a stub. The stub sees the
// query followed by its arguments, so patterns read like the call site:
//
//	run.WithArgs(stub.StringType, userID, stub.Any).ReturnsDatabaseResult(rows)
type Runner struct {
	Stub *stub.Stub
}

// NewRunner returns a Runner over a fresh stub.
func NewRunner() *Runner {
	return &Runner{Stub: stub.New()}
}

// Query records the call and converts the stubbed value:
// a database.Result or a slice of rows is returned as the result, an error
// as the error, and an unmatched call as a nil result.
func (r *Runner) Query(ctx context.Context, query string, args ...any) (database.Result, error) {
	v := r.Stub.Invoke(append([]any{query}, args...)...)
	switch val := v.(type) {
	case nil:
		return nil, nil
	case error:
		return nil, val
	case database.Result:
		return val, nil
	case []database.Row:
		return database.Rows(val), nil
	default:
		return nil, fmt.Errorf("stubdb: stubbed value %T is not a database result", v)
	}
}

// Hasher is a password hasher answering from two stubs.
type Hasher struct {
	HashStub    *stub.Stub // called with (password)
	CompareStub *stub.Stub // called with (password, hash)
}

// NewHasher returns a Hasher over fresh stubs.
func NewHasher() *Hasher {
	return &Hasher{HashStub: stub.New(), CompareStub: stub.New()}
}

// Hash returns the stubbed string, or the stubbed error.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	switch val := h.HashStub.Invoke(password).(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case error:
		return "", val
	default:
		return "", fmt.Errorf("stubdb: stubbed hash %T is not a string", val)
	}
}

// Compare returns the stubbed bool, or the stubbed error. An unmatched call
// compares as false.
func (h *Hasher) Compare(ctx context.Context, password, hash string) (bool, error) {
	switch val := h.CompareStub.Invoke(password, hash).(type) {
	case nil:
		return false, nil
	case bool:
		return val, nil
	case error:
		return false, val
	default:
		return false, fmt.Errorf("stubdb: stubbed comparison %T is not a bool", val)
	}
}

// Reset resets every stub of the hasher.
func (h *Hasher) Reset() {
	h.HashStub.Reset()
	h.CompareStub.Reset()
}
