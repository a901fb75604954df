package stub

import (
	"sync"
)

// Call is one recorded invocation.
type Call struct {
	Seq  int64 // 1-based invocation order, restarts after Reset
	Args []any
}

// Expectation pairs a pattern with the value returned when it matches.
// Expectations are never modified after registration.
type Expectation struct {
	Pattern Pattern
	Value   any
}

// Stub is a recording test double. The zero value is ready to use.
//
// Thread-safety: all methods are safe for concurrent use. Calls are
// recorded in the order Invoke acquires the lock.
type Stub struct {
	mu           sync.Mutex
	calls        []Call
	expectations []Expectation
}

// New creates an empty stub.
func New() *Stub {
	return &Stub{}
}

// Invoke records the call and returns the value of the first matching
// expectation, or nil when none matches.
func (s *Stub) Invoke(args ...any) any {
	v, _ := s.Resolve(args...)
	return v
}

// Resolve records the call like Invoke. ok is false when no expectation
// matched, which distinguishes an unstubbed call from a stubbed nil.
func (s *Stub) Resolve(args ...any) (value any, ok bool) {
	recorded := make([]any, len(args))
	copy(recorded, args)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Seq: int64(len(s.calls) + 1), Args: recorded})

	e, ok := findFirstMatch(s.expectations, recorded)
	if !ok {
		return nil, false
	}
	return e.Value, true
}

// Func returns the invocable handed to collaborators in place of the real
// function.
func (s *Stub) Func() func(args ...any) any {
	return s.Invoke
}

// WithArgs starts registering an expectation. Each value is passed through
// Infer, so Matchers are used as given.
func (s *Stub) WithArgs(args ...any) *Builder {
	return &Builder{stub: s, pattern: NewPattern(args...)}
}

// CallCount returns the number of recorded calls.
func (s *Stub) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// CalledTimes reports whether exactly n calls were recorded.
func (s *Stub) CalledTimes(n int) bool {
	return s.CallCount() == n
}

// CalledWith reports whether any recorded call matches the pattern.
func (s *Stub) CalledWith(args ...any) bool {
	pattern := NewPattern(args...)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.calls {
		if Matches(pattern, c.Args) {
			return true
		}
	}
	return false
}

// CallArgs returns a copy of the arguments of the call at index, or of the
// most recent call when index is omitted. ok is false if there is no such
// call.
func (s *Stub) CallArgs(index ...int) (args []any, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := len(s.calls) - 1
	if len(index) > 0 {
		i = index[0]
	}
	if i < 0 || i >= len(s.calls) {
		return nil, false
	}

	args = make([]any, len(s.calls[i].Args))
	copy(args, s.calls[i].Args)
	return args, true
}

// Calls returns a snapshot of the ledger.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Call, len(s.calls))
	for i, c := range s.calls {
		args := make([]any, len(c.Args))
		copy(args, c.Args)
		out[i] = Call{Seq: c.Seq, Args: args}
	}
	return out
}

// Expectations returns the registered expectations in registration order.
func (s *Stub) Expectations() []Expectation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Expectation, len(s.expectations))
	copy(out, s.expectations)
	return out
}

// Reset clears both the ledger and the expectations.
func (s *Stub) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
	s.expectations = nil
}

func (s *Stub) register(e Expectation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expectations = append(s.expectations, e)
}

// Builder registers the return spec for a pattern.
type Builder struct {
	stub    *Stub
	pattern Pattern
}

// Pattern returns the pattern being registered.
func (b *Builder) Pattern() Pattern {
	return b.pattern
}

// Returns registers value for the pattern.
func (b *Builder) Returns(value any) {
	b.stub.register(Expectation{Pattern: b.pattern, Value: value})
}

// ReturnsDatabaseResult registers a *DatabaseResult built from rows.
// rows must be a slice or array of maps with string keys; anything else is
// rejected with a *ConfigurationError and nothing is registered.
func (b *Builder) ReturnsDatabaseResult(rows any) error {
	r, err := toRows(rows)
	if err != nil {
		return err
	}
	b.stub.register(Expectation{Pattern: b.pattern, Value: NewDatabaseResult(r)})
	return nil
}

// MustReturnDatabaseResult is like ReturnsDatabaseResult but panics on a
// configuration error.
func (b *Builder) MustReturnDatabaseResult(rows any) {
	if err := b.ReturnsDatabaseResult(rows); err != nil {
		panic(err)
	}
}
