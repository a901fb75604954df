package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the query metrics recorded by Instrument.
type Metrics struct {
	Duration *prometheus.HistogramVec
	Errors   *prometheus.CounterVec
}

// NewMetrics creates the query metrics and registers them with reg, when
// reg is non-nil. Already registered collectors are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wellbeing_query_duration_seconds",
				Help:    "Duration of database queries by statement verb",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"verb"},
		),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wellbeing_query_errors_total",
				Help: "Total failed database queries by statement verb",
			},
			[]string{"verb"},
		),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.Duration, err = register(reg, m.Duration); err != nil {
		return nil, err
	}
	if m.Errors, err = register(reg, m.Errors); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Instrument wraps r so every query is timed and failures are counted.
func Instrument(r Runner, m *Metrics) Runner {
	return RunnerFunc(func(ctx context.Context, query string, args ...any) (Result, error) {
		verb := statementVerb(query)
		start := time.Now()
		result, err := r.Query(ctx, query, args...)
		m.Duration.WithLabelValues(verb).Observe(time.Since(start).Seconds())
		if err != nil {
			m.Errors.WithLabelValues(verb).Inc()
		}
		return result, err
	})
}

// statementVerb returns the lower-cased first keyword of query, which keeps
// metric label cardinality bounded.
func statementVerb(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "unknown"
	}
	switch verb := strings.ToLower(fields[0]); verb {
	case "select", "insert", "update", "delete", "create", "with":
		return verb
	default:
		return "other"
	}
}
