package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/wellbeing/internal/database"
	"github.com/roach88/wellbeing/internal/report"
)

const dateLayout = "2006-01-02"

// ReportOptions holds flags shared by the report subcommands.
type ReportOptions struct {
	*RootOptions
	UserID int64
	Date   string
}

// NewReportCommand creates the report command and its subcommands.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Add and summarise self-reports",
	}

	cmd.AddCommand(newReportSummaryCommand(opts))
	cmd.AddCommand(newReportShowCommand(opts))
	cmd.AddCommand(newReportPeriodCommand(opts, "week"))
	cmd.AddCommand(newReportPeriodCommand(opts, "month"))
	cmd.AddCommand(newReportMoodCommand(opts))
	cmd.AddCommand(newReportAddCommand(opts))

	return cmd
}

func newReportSummaryCommand(opts *ReportOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Average every user's reports of a day, or of the past seven days",
		Long: `Average every user's reports.

Without --date the summary covers the past seven days.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReports(cmd, opts, func(svc *report.Service, out *OutputFormatter) error {
				var row database.Row
				var err error
				if opts.Date == "" {
					row, err = svc.GeneralSummaryPastSevenDays(cmd.Context())
				} else {
					date, perr := parseDate(opts.Date)
					if perr != nil {
						return perr
					}
					row, err = svc.GeneralSummaryByDate(cmd.Context(), date)
				}
				if err != nil {
					return queryFailed(out, err)
				}
				return outputRow(out, row)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Date, "date", "", "day to summarise (YYYY-MM-DD)")
	return cmd
}

func newReportShowCommand(opts *ReportOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show",
		Short:         "Show a user's morning and evening report of a day",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReports(cmd, opts, func(svc *report.Service, out *OutputFormatter) error {
				date := time.Now()
				if opts.Date != "" {
					d, err := parseDate(opts.Date)
					if err != nil {
						return err
					}
					date = d
				}
				morning, evening, err := svc.GetReportByDate(cmd.Context(), opts.UserID, date)
				if err != nil {
					return queryFailed(out, err)
				}
				return outputRows(out, []database.Row{morning, evening}, []string{"morning", "evening"})
			})
		},
	}
	cmd.Flags().Int64Var(&opts.UserID, "user", 0, "user id")
	cmd.Flags().StringVar(&opts.Date, "date", "", "day to show (YYYY-MM-DD, default today)")
	return cmd
}

func newReportPeriodCommand(opts *ReportOptions, period string) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:           period,
		Short:         fmt.Sprintf("Average a user's reports of one %s number", period),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReports(cmd, opts, func(svc *report.Service, out *OutputFormatter) error {
				summarise := svc.SummaryForWeek
				if period == "month" {
					summarise = svc.SummaryForMonth
				}
				row, err := summarise(cmd.Context(), opts.UserID, n)
				if err != nil {
					return queryFailed(out, err)
				}
				return outputRow(out, row)
			})
		},
	}
	cmd.Flags().Int64Var(&opts.UserID, "user", 0, "user id")
	cmd.Flags().IntVar(&n, period, 0, period+" number")
	return cmd
}

func newReportMoodCommand(opts *ReportOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mood",
		Short:         "Show a user's average mood of today and yesterday",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReports(cmd, opts, func(svc *report.Service, out *OutputFormatter) error {
				rows, err := svc.MoodSummaryPastTwoDays(cmd.Context(), opts.UserID)
				if err != nil {
					return queryFailed(out, err)
				}
				return outputRows(out, rows, nil)
			})
		},
	}
	cmd.Flags().Int64Var(&opts.UserID, "user", 0, "user id")
	return cmd
}

// reportFlags are the optional fields of report add. Unset flags stay nil.
type reportFlags struct {
	sleepTime, sportsTime, studyingTime float64
	sleepQuality, eatingQuality, mood   int
}

func newReportAddCommand(opts *ReportOptions) *cobra.Command {
	var f reportFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a morning or evening report",
		Long: `Add a morning report (--sleep-time set) or an evening report
(--sports-time set). An existing report of the same kind on the same day
is replaced.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := report.Report{Date: time.Now()}
			if opts.Date != "" {
				d, err := parseDate(opts.Date)
				if err != nil {
					return err
				}
				r.Date = d
			}
			flags := cmd.Flags()
			if flags.Changed("sleep-time") {
				r.SleepTime = &f.sleepTime
			}
			if flags.Changed("sleep-quality") {
				r.SleepQuality = &f.sleepQuality
			}
			if flags.Changed("sports-time") {
				r.SportsTime = &f.sportsTime
			}
			if flags.Changed("studying-time") {
				r.StudyingTime = &f.studyingTime
			}
			if flags.Changed("eating-quality") {
				r.EatingQuality = &f.eatingQuality
			}
			if flags.Changed("mood") {
				r.Mood = &f.mood
			}

			return withReports(cmd, opts, func(svc *report.Service, out *OutputFormatter) error {
				if err := svc.AddReport(cmd.Context(), r, opts.UserID); err != nil {
					return queryFailed(out, err)
				}
				kind := "evening"
				if r.IsMorning() {
					kind = "morning"
				}
				if opts.Format == "json" {
					return out.Success(map[string]any{"kind": kind, "date": r.Date.Format(dateLayout)})
				}
				fmt.Fprintf(out.Writer, "✓ %s report stored for %s\n", kind, r.Date.Format(dateLayout))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&opts.UserID, "user", 0, "user id")
	cmd.Flags().StringVar(&opts.Date, "date", "", "report day (YYYY-MM-DD, default today)")
	cmd.Flags().Float64Var(&f.sleepTime, "sleep-time", 0, "hours slept (morning)")
	cmd.Flags().IntVar(&f.sleepQuality, "sleep-quality", 0, "sleep quality (morning)")
	cmd.Flags().Float64Var(&f.sportsTime, "sports-time", 0, "hours of sports (evening)")
	cmd.Flags().Float64Var(&f.studyingTime, "studying-time", 0, "hours studied (evening)")
	cmd.Flags().IntVar(&f.eatingQuality, "eating-quality", 0, "eating quality (evening)")
	cmd.Flags().IntVar(&f.mood, "mood", 0, "mood")
	return cmd
}

// withReports opens the database and runs fn against a report service.
func withReports(cmd *cobra.Command, opts *ReportOptions, fn func(*report.Service, *OutputFormatter) error) error {
	out := opts.formatter(cmd)
	env, err := opts.openDB()
	if err != nil {
		return err
	}
	defer env.Close()

	svc := report.NewService(env.Runner, env.DB.Dialect(), env.Logger)
	err = fn(svc, out)
	env.logQueryStats(out)
	return err
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, WrapExitError(ExitCommandError, "invalid --date", err)
	}
	return d, nil
}

func queryFailed(out *OutputFormatter, err error) error {
	_ = out.Error(ErrCodeQueryFailed, err.Error(), nil)
	return WrapExitError(ExitFailure, "report command failed", err)
}

// outputRow prints one row as a column/value table, or as JSON.
func outputRow(out *OutputFormatter, row database.Row) error {
	if out.Format == "json" {
		return out.Success(row)
	}
	if row == nil {
		fmt.Fprintln(out.Writer, "No data.")
		return nil
	}
	out.Table([]string{"Column", "Value"}, rowTable(row), nil)
	return nil
}

// outputRows prints rows as a table with one column per key. labels, when
// set, name the rows; a nil row renders as empty cells.
func outputRows(out *OutputFormatter, rows []database.Row, labels []string) error {
	if out.Format == "json" {
		if labels == nil {
			return out.Success(rows)
		}
		data := make(map[string]database.Row, len(rows))
		for i, r := range rows {
			data[labels[i]] = r
		}
		return out.Success(data)
	}

	keys := columnsOf(rows)
	if len(keys) == 0 {
		fmt.Fprintln(out.Writer, "No data.")
		return nil
	}

	header := keys
	if labels != nil {
		header = append([]string{""}, keys...)
	}
	table := make([][]string, 0, len(rows))
	for i, r := range rows {
		var line []string
		if labels != nil {
			line = append(line, labels[i])
		}
		for _, k := range keys {
			line = append(line, cell(r, k))
		}
		table = append(table, line)
	}
	out.Table(header, table, nil)
	return nil
}

func rowTable(row database.Row) [][]string {
	keys := columnsOf([]database.Row{row})
	table := make([][]string, 0, len(keys))
	for _, k := range keys {
		table = append(table, []string{k, cell(row, k)})
	}
	return table
}

func columnsOf(rows []database.Row) []string {
	seen := map[string]bool{}
	var keys []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func cell(row database.Row, key string) string {
	v, ok := row[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case time.Time:
		return val.Format(dateLayout)
	case float64:
		return fmt.Sprintf("%.2f", val)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
