package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/wellbeing/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update   bool   // regenerate golden files
	Filter   string // scenario filter (glob pattern on the file name)
	Parallel int    // scenarios run concurrently
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"` // "match", "updated" or "none"
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run stub scenarios",
		Long: `Run declarative stub scenarios.

Each scenario file configures a fresh stub, calls it, and asserts on the
recorded calls. When <scenarios-dir>/golden/<file>.golden exists, the call
ledger must match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  wellbeing test ./scenarios
  wellbeing test ./scenarios --filter "select_*"
  wellbeing test ./scenarios --update
  wellbeing test ./scenarios --parallel 4 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenario files by glob pattern")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 1, "number of scenarios run concurrently")

	return cmd
}

func runTests(cmd *cobra.Command, opts *TestOptions, scenariosDir string) error {
	out := opts.formatter(cmd)

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := harness.FindScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	if len(files) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(cmd, TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	// Load failures are reported per file; only loaded scenarios run.
	results := make([]ScenarioResult, len(files))
	var scenarios []*harness.Scenario
	var slots []int
	for i, file := range files {
		results[i] = ScenarioResult{Name: filepath.Base(file), File: file}
		scenario, err := harness.LoadScenario(file)
		if err != nil {
			results[i].Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
			continue
		}
		results[i].Name = scenario.Name
		scenarios = append(scenarios, scenario)
		slots = append(slots, i)
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	logger, err := opts.newLogger(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create logger", err)
	}
	defer func() { _ = logger.Sync() }()

	out.VerboseLog("Running %d scenario(s) from %s", len(scenarios), scenariosDir)
	runs, err := harness.New(logger).RunAll(cmd.Context(), scenarios, opts.Parallel)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}

	for j, run := range runs {
		r := &results[slots[j]]
		r.Errors = append(r.Errors, run.Errors...)
		golden, err := checkGolden(r.File, run, opts.Update)
		r.Golden = golden
		if err != nil {
			r.Errors = append(r.Errors, err.Error())
		}
		r.Pass = run.Pass && err == nil
	}

	summary := TestResult{Scenarios: results, Total: len(results)}
	for _, r := range results {
		if r.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(cmd, summary)
	}
	return outputTestText(out, summary)
}

var errGoldenMismatch = errors.New("ledger does not match golden file (run with --update to regenerate)")

// checkGolden compares the ledger snapshot of result with the golden file
// of scenarioFile, or rewrites the golden file when update is set. A
// scenario without a golden file relies on its assertions alone.
func checkGolden(scenarioFile string, result *harness.Result, update bool) (string, error) {
	current, err := harness.Snapshot(result).MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("failed to marshal ledger: %w", err)
	}

	goldenPath := goldenFilePath(scenarioFile)
	if update {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
			return "", fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(goldenPath, current, 0644); err != nil {
			return "", fmt.Errorf("failed to write golden file: %w", err)
		}
		return "updated", nil
	}

	golden, err := os.ReadFile(goldenPath)
	switch {
	case os.IsNotExist(err):
		return "none", nil
	case err != nil:
		return "", fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(golden, current) {
		return "", errGoldenMismatch
	}
	return "match", nil
}

// goldenFilePath returns the path to the golden file for a scenario file.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test result as a table followed by a summary.
func outputTestText(out *OutputFormatter, result TestResult) error {
	rows := make([][]string, 0, len(result.Scenarios))
	for _, s := range result.Scenarios {
		mark := "✓"
		if !s.Pass {
			mark = "✗"
		}
		detail := s.Golden
		if len(s.Errors) > 0 {
			detail = s.Errors[0]
			if n := len(s.Errors) - 1; n > 0 {
				detail += fmt.Sprintf(" (+%d more)", n)
			}
		}
		rows = append(rows, []string{mark, s.Name, detail})
	}
	out.Table([]string{"", "Scenario", "Detail"}, rows, nil)

	if out.Verbose {
		for _, s := range result.Scenarios {
			for _, e := range s.Errors {
				out.VerboseLog("%s: %s", s.Name, e)
			}
		}
	}

	w := out.Writer
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
