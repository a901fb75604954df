// Package report stores and summarises the daily morning and evening
// self-reports of a user.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/wellbeing/internal/database"
	"github.com/roach88/wellbeing/internal/observability"
)

// dateLayout is how dates are passed to the database.
const dateLayout = "2006-01-02"

var (
	// ErrMissingUserID is returned when no user ID is given.
	ErrMissingUserID = errors.New("no user id defined")
	// ErrMissingDate is returned when no date, week or month is given.
	ErrMissingDate = errors.New("no date defined")
	// ErrIncompleteReport is returned by AddReport for a report that is
	// neither a morning nor an evening report.
	ErrIncompleteReport = errors.New("report has neither sleep time nor sports time")
)

// Report is one self-report. A morning report has SleepTime set, an evening
// report has SportsTime set.
type Report struct {
	Date time.Time

	SleepTime    *float64
	SleepQuality *int

	SportsTime    *float64
	StudyingTime  *float64
	EatingQuality *int

	Mood *int
}

// IsMorning reports whether r is a morning report.
func (r Report) IsMorning() bool {
	return r.SleepTime != nil
}

// IsEvening reports whether r is an evening report.
func (r Report) IsEvening() bool {
	return r.SportsTime != nil
}

// Clock tells the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Service reads and writes reports through a database.Runner.
type Service struct {
	run     database.Runner
	queries queries
	clock   Clock
	logger  *zap.Logger
}

// NewService creates a Service issuing SQL for the given dialect.
func NewService(run database.Runner, dialect database.Dialect, logger *zap.Logger) *Service {
	return &Service{
		run:     run,
		queries: buildQueries(dialect),
		clock:   systemClock{},
		logger:  observability.OrNop(logger),
	}
}

// WithClock makes s read the current day from c and returns s.
func (s *Service) WithClock(c Clock) *Service {
	s.clock = c
	return s
}

// GetReportByDate returns the morning and evening report of a user for one
// day. Either is nil when missing.
func (s *Service) GetReportByDate(ctx context.Context, userID int64, date time.Time) (morning, evening database.Row, err error) {
	if userID <= 0 {
		return nil, nil, ErrMissingUserID
	}
	if date.IsZero() {
		return nil, nil, ErrMissingDate
	}

	result, err := s.run.Query(ctx, s.queries.byDate, userID, date.Format(dateLayout))
	if err != nil {
		return nil, nil, fmt.Errorf("get report for user %d: %w", userID, err)
	}

	for _, row := range database.RowsOf(result) {
		if morning == nil && isMorningRow(row) {
			morning = row
		}
		if evening == nil && isEveningRow(row) {
			evening = row
		}
	}
	return morning, evening, nil
}

// GeneralSummaryByDate averages every user's reports of one day.
func (s *Service) GeneralSummaryByDate(ctx context.Context, date time.Time) (database.Row, error) {
	if date.IsZero() {
		return nil, ErrMissingDate
	}
	return s.first(ctx, "general summary by date", s.queries.generalByDate, date.Format(dateLayout))
}

// GeneralSummaryPastSevenDays averages every user's reports of the last
// seven days.
func (s *Service) GeneralSummaryPastSevenDays(ctx context.Context) (database.Row, error) {
	return s.first(ctx, "general summary for past seven days", s.queries.generalPastWeek)
}

// SummaryForWeek averages a user's reports of one week number.
func (s *Service) SummaryForWeek(ctx context.Context, userID int64, week int) (database.Row, error) {
	if userID <= 0 {
		return nil, ErrMissingUserID
	}
	if week <= 0 {
		return nil, ErrMissingDate
	}
	return s.first(ctx, "week summary", s.queries.userWeek, userID, week)
}

// SummaryForMonth averages a user's reports of one month (1-12).
func (s *Service) SummaryForMonth(ctx context.Context, userID int64, month int) (database.Row, error) {
	if userID <= 0 {
		return nil, ErrMissingUserID
	}
	if month <= 0 {
		return nil, ErrMissingDate
	}
	return s.first(ctx, "month summary", s.queries.userMonth, userID, month)
}

// MoodSummaryPastTwoDays returns the average mood of today and yesterday,
// newest first.
func (s *Service) MoodSummaryPastTwoDays(ctx context.Context, userID int64) ([]database.Row, error) {
	if userID <= 0 {
		return nil, ErrMissingUserID
	}

	today := s.clock.Now()
	yesterday := today.AddDate(0, 0, -1)

	result, err := s.run.Query(ctx, s.queries.moodTwoDays, userID, today.Format(dateLayout), yesterday.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("mood summary for user %d: %w", userID, err)
	}
	return database.RowsOf(result), nil
}

// AddReport stores r for the user, replacing an existing report of the same
// kind on the same day.
func (s *Service) AddReport(ctx context.Context, r Report, userID int64) error {
	s.logger.Debug("add report", zap.Int64("user_id", userID), zap.Time("date", r.Date),
		zap.Bool("morning", r.IsMorning()), zap.Bool("evening", r.IsEvening()))

	if !r.IsMorning() && !r.IsEvening() {
		return ErrIncompleteReport
	}

	morning, evening, err := s.GetReportByDate(ctx, userID, r.Date)
	if err != nil {
		return err
	}

	if r.IsMorning() {
		if morning != nil {
			if err := s.delete(ctx, userID, morning); err != nil {
				return err
			}
		}
		_, err := s.run.Query(ctx, s.queries.insertMorning,
			deref(r.SleepTime), deref(r.SleepQuality), deref(r.Mood), r.Date.Format(dateLayout), userID)
		if err != nil {
			return fmt.Errorf("insert morning report: %w", err)
		}
		return nil
	}

	if evening != nil {
		if err := s.delete(ctx, userID, evening); err != nil {
			return err
		}
	}
	_, err = s.run.Query(ctx, s.queries.insertEvening,
		deref(r.SportsTime), deref(r.StudyingTime), deref(r.EatingQuality), deref(r.Mood), r.Date.Format(dateLayout), userID)
	if err != nil {
		return fmt.Errorf("insert evening report: %w", err)
	}
	return nil
}

func (s *Service) delete(ctx context.Context, userID int64, row database.Row) error {
	if _, err := s.run.Query(ctx, s.queries.delete, row["id"], userID); err != nil {
		return fmt.Errorf("delete report %v: %w", row["id"], err)
	}
	return nil
}

func (s *Service) first(ctx context.Context, what, query string, args ...any) (database.Row, error) {
	result, err := s.run.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return database.FirstRow(result), nil
}

func isMorningRow(row database.Row) bool {
	return row["sleep_time"] != nil
}

func isEveningRow(row database.Row) bool {
	return row["sports_time"] != nil
}

// deref turns an unset field into SQL NULL.
func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
