package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/wellbeing/internal/observability"
	"github.com/roach88/wellbeing/internal/stub"
)

// Harness runs scenarios, each against its own fresh stub.
type Harness struct {
	logger *zap.Logger
	ids    RunIDGenerator
}

// New creates a Harness naming runs with UUIDv7s. A nil logger discards
// logs.
func New(logger *zap.Logger) *Harness {
	return &Harness{logger: observability.OrNop(logger), ids: UUIDv7Generator{}}
}

// WithRunIDs makes h name runs with ids and returns h.
func (h *Harness) WithRunIDs(ids RunIDGenerator) *Harness {
	h.ids = ids
	return h
}

// Run executes a scenario with a default Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New(nil).Run(scenario)
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Create a fresh stub
//  2. Register expectations in order; a configuration error fails the
//     scenario before any call is made
//  3. Make every call, checking its expect clause
//  4. Evaluate assertions against the ledger
//
// The returned error is reserved for scenarios that cannot be executed at
// all; failed checks are reported in Result.Errors.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	result := NewResult(h.ids.Generate(), scenario.Name)
	logger := h.logger.With(zap.String("scenario", scenario.Name), zap.String("run_id", result.RunID))
	start := time.Now()

	s := stub.New()
	patterns, err := Configure(s, scenario)
	result.Expectations = append(result.Expectations, patterns...)
	if err != nil {
		if !errors.Is(err, stub.ErrConfiguration) {
			return nil, err
		}
		result.AddError(err.Error())
		logger.Debug("scenario configuration failed", zap.Error(err))
		return result, nil
	}

	for i, c := range scenario.Calls {
		value, matched := s.Resolve(c.Args...)
		result.record(int64(i+1), c.Args, value, matched)
		if msg := checkCall(c, value, matched); msg != "" {
			result.AddError(fmt.Sprintf("calls[%d]: %s", i, msg))
		}
	}

	for i, a := range scenario.Assertions {
		if err := evaluateAssertion(s, a, result.Ledger); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	logger.Debug("scenario finished",
		zap.Bool("pass", result.Pass),
		zap.Int("calls", len(result.Ledger)),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// Configure registers the expectations of scenario on s in order and
// returns their rendered patterns. It stops at the first expectation that
// cannot be registered; a bad rows value yields an error matching
// stub.ErrConfiguration.
func Configure(s *stub.Stub, scenario *Scenario) ([]string, error) {
	patterns := make([]string, 0, len(scenario.Expectations))
	for i, e := range scenario.Expectations {
		pattern, err := DecodePattern(e.Args)
		if err != nil {
			return patterns, fmt.Errorf("expectations[%d]: %w", i, err)
		}
		b := s.WithArgs(patternArgs(pattern)...)
		if e.Rows != nil {
			if err := b.ReturnsDatabaseResult(e.Rows); err != nil {
				return patterns, fmt.Errorf("expectations[%d]: %w", i, err)
			}
		} else {
			b.Returns(e.Returns)
		}
		patterns = append(patterns, pattern.String())
	}
	return patterns, nil
}

// RunAll runs scenarios on at most parallel goroutines (1 if parallel < 1).
// Results are in input order. The first execution error cancels the rest.
func (h *Harness) RunAll(ctx context.Context, scenarios []*Scenario, parallel int) ([]*Result, error) {
	if parallel < 1 {
		parallel = 1
	}

	results := make([]*Result, len(scenarios))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, scenario := range scenarios {
		i, scenario := i, scenario
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := h.Run(scenario)
			if err != nil {
				return fmt.Errorf("%s: %w", scenario.Name, err)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func patternArgs(p stub.Pattern) []any {
	args := make([]any, len(p))
	for i, m := range p {
		args[i] = m
	}
	return args
}

// checkCall returns a failure message, or "" when the call behaved as its
// step expects.
func checkCall(c CallStep, value any, matched bool) string {
	switch {
	case c.ExpectAbsent:
		if matched {
			return fmt.Sprintf("expected no matching expectation, got %v", value)
		}
	case c.ExpectNil:
		if !matched {
			return "expected nil, no expectation matched"
		}
		if value != nil {
			return fmt.Sprintf("expected nil, got %v", value)
		}
	case c.ExpectRows != nil:
		if !matched {
			return "expected rows, no expectation matched"
		}
		dr, ok := value.(*stub.DatabaseResult)
		if !ok {
			return fmt.Sprintf("expected a database result, got %T", value)
		}
		if !rowsEqual(c.ExpectRows, dr.RowsOfObjects()) {
			return fmt.Sprintf("expected rows %v, got %v", c.ExpectRows, dr.RowsOfObjects())
		}
	case c.Expect != nil:
		if !matched {
			return fmt.Sprintf("expected %v, no expectation matched", c.Expect)
		}
		if !valuesEqual(c.Expect, value) {
			return fmt.Sprintf("expected %v, got %v", c.Expect, value)
		}
	}
	return ""
}
