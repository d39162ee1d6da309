// Package testutil provides shared test helpers for PowLang conformance tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ScenariosDir is the scenario root relative to the module root.
const ScenariosDir = "testdata/scenarios"

// Scenario is one conformance case loaded from scenario.yaml. The program
// lives next to it in program.pow.
type Scenario struct {
	Description   string         `yaml:"description"`
	Cmd           string         `yaml:"cmd"`
	EnableLogs    bool           `yaml:"enableLogs,omitempty"`
	MaxIterations int64          `yaml:"maxIterations,omitempty"`
	Tags          []string       `yaml:"tags,omitempty"`
	Expect        ExpectedResult `yaml:"expect"`
}

// ExpectedResult describes the expected outcome of a scenario. A run either
// produces Output or fails at Stage with Code.
type ExpectedResult struct {
	Output          *string        `yaml:"output,omitempty"`
	Stage           string         `yaml:"stage,omitempty"`
	Code            string         `yaml:"code,omitempty"`
	MessageContains string         `yaml:"messageContains,omitempty"`
	Line            int            `yaml:"line,omitempty"`
	Col             int            `yaml:"col,omitempty"`
	Env             map[string]any `yaml:"env,omitempty"`
	LogCount        int            `yaml:"logCount,omitempty"`
	Diagnostics     []string       `yaml:"diagnostics,omitempty"`
}

// Fails reports whether the scenario expects an error.
func (e ExpectedResult) Fails() bool {
	return e.Code != ""
}

// LoadScenario loads scenario.yaml and program.pow from dir.
func LoadScenario(dir string) (*Scenario, string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "scenario.yaml"))
	if err != nil {
		return nil, "", err
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", dir, err)
	}
	if s.Cmd == "" {
		s.Cmd = "run"
	}

	source, err := os.ReadFile(filepath.Join(dir, "program.pow"))
	if err != nil {
		return nil, "", err
	}
	return &s, string(source), nil
}

// ListScenarios returns all scenario directories under root in name order.
func ListScenarios(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), "scenario.yaml")); err == nil {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// IsSubset reports whether every key and element of expected appears in
// actual. Numbers compare as float64 so YAML ints match JSON numbers.
func IsSubset(expected, actual any) bool {
	switch e := expected.(type) {
	case map[string]any:
		a, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, ev := range e {
			av, exists := a[k]
			if !exists || !IsSubset(ev, av) {
				return false
			}
		}
		return true
	case []any:
		a, ok := actual.([]any)
		if !ok || len(e) > len(a) {
			return false
		}
		for i, ev := range e {
			if !IsSubset(ev, a[i]) {
				return false
			}
		}
		return true
	case int:
		af, ok := actual.(float64)
		return ok && float64(e) == af
	case float64:
		af, ok := actual.(float64)
		return ok && e == af
	default:
		return expected == actual
	}
}
