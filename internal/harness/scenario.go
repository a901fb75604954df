package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Scenario configures a fresh stub, calls it, and asserts on its ledger.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" json:"description"`

	// Expectations are registered in order, so an earlier one shadows a
	// later one matching the same call.
	Expectations []ExpectationStep `yaml:"expectations,omitempty" json:"expectations,omitempty"`

	// Calls invoke the stub in order.
	Calls []CallStep `yaml:"calls" json:"calls"`

	// Assertions run after every call.
	Assertions []Assertion `yaml:"assertions" json:"assertions"`

	// Path is the file the scenario was loaded from.
	Path string `yaml:"-" json:"-"`
}

// ExpectationStep registers one expectation. Args holds pattern specs,
// see DecodeMatcher. Rows, when set, configures a database result instead
// of Returns.
type ExpectationStep struct {
	Args    []any `yaml:"args" json:"args"`
	Returns any   `yaml:"returns,omitempty" json:"returns,omitempty"`
	Rows    any   `yaml:"rows,omitempty" json:"rows,omitempty"`
}

// CallStep invokes the stub once with plain argument values.
type CallStep struct {
	Args []any `yaml:"args" json:"args"`

	// Expect is compared with the resolved value when set.
	Expect any `yaml:"expect,omitempty" json:"expect,omitempty"`

	// ExpectRows is compared with the rows of a resolved database result.
	ExpectRows []map[string]any `yaml:"expect_rows,omitempty" json:"expect_rows,omitempty"`

	// ExpectNil requires a matched expectation whose value is nil.
	ExpectNil bool `yaml:"expect_nil,omitempty" json:"expect_nil,omitempty"`

	// ExpectAbsent requires that no expectation matched.
	ExpectAbsent bool `yaml:"expect_absent,omitempty" json:"expect_absent,omitempty"`
}

// Assertion checks the ledger once every call has run.
type Assertion struct {
	// Type is one of called_times, called_with, call_args.
	Type string `yaml:"type" json:"type"`

	// Count is the exact call count (called_times).
	Count *int `yaml:"count,omitempty" json:"count,omitempty"`

	// Args are pattern specs (called_with) or expected values (call_args).
	Args []any `yaml:"args,omitempty" json:"args,omitempty"`

	// Not inverts called_with.
	Not bool `yaml:"not,omitempty" json:"not,omitempty"`

	// Index selects a call by position for call_args; nil means the last.
	Index *int `yaml:"index,omitempty" json:"index,omitempty"`

	// Absent requires that call_args finds no call at Index.
	Absent bool `yaml:"absent,omitempty" json:"absent,omitempty"`
}

// Assertion type constants.
const (
	AssertCalledTimes = "called_times"
	AssertCalledWith  = "called_with"
	AssertCallArgs    = "call_args"
)

// LoadScenario reads a scenario from a YAML (.yaml, .yml) or CUE (.cue) file.
// Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario *Scenario
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		scenario, err = ParseCUE(data, path)
	default:
		scenario, err = ParseYAML(data)
	}
	if err != nil {
		return nil, err
	}
	scenario.Path = path
	return scenario, nil
}

// ParseYAML parses and validates a YAML scenario.
func ParseYAML(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// ParseCUE evaluates a CUE scenario and decodes its concrete value.
// Numbers come out as int or float64, the same as from YAML.
func ParseCUE(data []byte, filename string) (*Scenario, error) {
	value := cuecontext.New().CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CUE: %w", err)
	}
	if err := value.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate CUE: %w", err)
	}

	raw, err := value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to export CUE: %w", err)
	}

	var scenario Scenario
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	decoder.UseNumber()
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to decode CUE: %w", err)
	}
	normalizeScenario(&scenario)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every scenario file in dir whose name matches the glob
// filter (empty matches all), sorted by path.
func LoadDir(dir, filter string) ([]*Scenario, error) {
	paths, err := FindScenarioFiles(dir, filter)
	if err != nil {
		return nil, err
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// FindScenarioFiles lists the scenario files directly inside dir whose name
// matches the glob filter (empty matches all), sorted by path.
func FindScenarioFiles(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsScenarioFile(e.Name()) {
			continue
		}
		if filter != "" {
			ok, err := filepath.Match(filter, e.Name())
			if err != nil {
				return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
			}
			if !ok {
				continue
			}
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// IsScenarioFile reports whether name has a scenario file extension.
func IsScenarioFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".cue":
		return true
	}
	return false
}

// validateScenario checks that required fields are present and that every
// pattern spec decodes.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Calls) == 0 && len(s.Assertions) == 0 {
		return fmt.Errorf("calls or assertions are required")
	}

	for i, e := range s.Expectations {
		if _, err := DecodePattern(e.Args); err != nil {
			return fmt.Errorf("expectations[%d]: %w", i, err)
		}
		if e.Rows != nil && e.Returns != nil {
			return fmt.Errorf("expectations[%d]: returns and rows are exclusive", i)
		}
	}

	for i, c := range s.Calls {
		set := 0
		for _, b := range []bool{c.Expect != nil, c.ExpectRows != nil, c.ExpectNil, c.ExpectAbsent} {
			if b {
				set++
			}
		}
		if set > 1 {
			return fmt.Errorf("calls[%d]: expect, expect_rows, expect_nil and expect_absent are exclusive", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertCalledTimes:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for called_times", index)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for called_times", index)
		}
	case AssertCalledWith:
		if _, err := DecodePattern(a.Args); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertCallArgs:
		if a.Absent && a.Args != nil {
			return fmt.Errorf("assertions[%d]: args and absent are exclusive for call_args", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
