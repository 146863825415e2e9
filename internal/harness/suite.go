package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// SuiteOptions controls a directory run.
type SuiteOptions struct {
	// Filter is a glob matched against scenario names.
	Filter string

	// GoldenDir holds {name}.golden snapshots. Empty disables golden
	// comparison.
	GoldenDir string

	// Update rewrites golden files instead of comparing them.
	Update bool
}

// ScenarioResult is the outcome of one scenario in a suite.
type ScenarioResult struct {
	Name          string   `json:"name"`
	File          string   `json:"file"`
	Pass          bool     `json:"pass"`
	Status        string   `json:"status,omitempty"`
	GoldenUpdated bool     `json:"golden_updated,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

// SuiteResult summarizes a directory of scenarios.
type SuiteResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// RunSuite executes every scenario in dir. A scenario that fails to load
// or run counts as failed; the error return is reserved for an unreadable
// directory or a bad filter.
func (h *Harness) RunSuite(dir string, opts SuiteOptions) (*SuiteResult, error) {
	if _, err := filepath.Match(opts.Filter, ""); err != nil {
		return nil, fmt.Errorf("invalid filter pattern: %w", err)
	}
	scenarios, err := LoadScenarios(dir)
	if err != nil {
		return nil, err
	}

	suite := &SuiteResult{Scenarios: []ScenarioResult{}}
	for _, s := range scenarios {
		if opts.Filter != "" {
			if ok, _ := filepath.Match(opts.Filter, s.Name); !ok {
				continue
			}
		}
		sr := h.runOne(s, opts)
		suite.Scenarios = append(suite.Scenarios, sr)
		suite.Total++
		if sr.Pass {
			suite.Passed++
		} else {
			suite.Failed++
		}
	}
	return suite, nil
}

func (h *Harness) runOne(s *Scenario, opts SuiteOptions) ScenarioResult {
	sr := ScenarioResult{Name: s.Name, File: s.File}
	result, err := h.Run(s)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Status = result.Status
	sr.Errors = result.Errors

	if s.Golden && opts.GoldenDir != "" {
		path := GoldenPath(opts.GoldenDir, s.Name)
		if opts.Update {
			if err := UpdateGolden(path, s.Name, result); err != nil {
				sr.Errors = append(sr.Errors, err.Error())
				return sr
			}
			sr.GoldenUpdated = true
		} else if err := CompareGolden(path, s.Name, result); err != nil {
			sr.Errors = append(sr.Errors, err.Error())
			return sr
		}
	}
	sr.Pass = result.Pass
	return sr
}

// GoldenPath returns the snapshot file for a scenario name.
func GoldenPath(dir, name string) string {
	return filepath.Join(dir, name+".golden")
}

// CompareGolden checks a result's snapshot against the file at path.
func CompareGolden(path, name string, result *Result) error {
	want, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("golden file %s not found (run with --update to create it)", path)
	}
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(want, Snapshot(name, result)) {
		return fmt.Errorf("snapshot does not match %s (run with --update to regenerate)", path)
	}
	return nil
}

// UpdateGolden writes a result's snapshot to path.
func UpdateGolden(path, name string, result *Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, Snapshot(name, result), 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}
