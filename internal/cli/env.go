package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/roach88/wellbeing/internal/database"
)

// dbEnv is the database, logger and metrics shared by the commands that
// touch the database.
type dbEnv struct {
	DB       *database.DB
	Runner   database.Runner
	Logger   *zap.Logger
	Registry *prometheus.Registry
}

// openDB loads config, builds the logger and opens an instrumented
// database. Errors are ExitErrors with ExitCommandError.
func (o *RootOptions) openDB() (*dbEnv, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	logger, err := o.newLogger(cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create logger", err)
	}

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	reg := prometheus.NewRegistry()
	metrics, err := database.NewMetrics(reg)
	if err != nil {
		db.Close()
		_ = logger.Sync()
		return nil, WrapExitError(ExitCommandError, "failed to register metrics", err)
	}

	return &dbEnv{
		DB:       db,
		Runner:   database.Instrument(db, metrics),
		Logger:   logger,
		Registry: reg,
	}, nil
}

// Close closes the database and flushes the logger.
func (e *dbEnv) Close() {
	if err := e.DB.Close(); err != nil {
		e.Logger.Warn("failed to close database", zap.Error(err))
	}
	_ = e.Logger.Sync()
}

// logQueryStats writes the number of queries observed per statement verb.
func (e *dbEnv) logQueryStats(out *OutputFormatter) {
	if !out.Verbose {
		return
	}
	families, err := e.Registry.Gather()
	if err != nil {
		out.VerboseLog("failed to gather metrics: %v", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var verb string
			for _, l := range m.GetLabel() {
				if l.GetName() == "verb" {
					verb = l.GetValue()
				}
			}
			switch {
			case m.GetHistogram() != nil:
				out.VerboseLog("%s{verb=%q} count=%d", mf.GetName(), verb, m.GetHistogram().GetSampleCount())
			case m.GetCounter() != nil:
				out.VerboseLog("%s{verb=%q} %s", mf.GetName(), verb, fmt.Sprint(m.GetCounter().GetValue()))
			}
		}
	}
}
