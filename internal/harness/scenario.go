// Package harness runs YAML-defined scenarios against the command engine:
// scripts, undo/redo steps, and assertions on the resulting world state,
// with golden-file trace comparison for regression coverage.
package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario. Scenarios execute a sequence
// of steps against a fresh, deterministic engine and then assert on the
// final world state and on the step trace.
type Scenario struct {
	// Name uniquely identifies this scenario; it is also the golden file
	// name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Steps is the ordered list of actions to perform.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final world state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one scenario action: exactly one of Script, Undo, or Redo must
// be set.
type Step struct {
	// Script is a source string to execute and, on success, commit.
	Script string `yaml:"script,omitempty"`

	// Undo and Redo invoke the history stack.
	Undo bool `yaml:"undo,omitempty"`
	Redo bool `yaml:"redo,omitempty"`

	// Expect validates the step's outcome. Optional.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies a step's expected outcome.
type Expect struct {
	// Success is the expected Result.Success for script steps.
	Success *bool `yaml:"success,omitempty"`

	// Message is the expected exact Result.Message.
	Message string `yaml:"message,omitempty"`

	// Changes is the expected number of recorded changes.
	Changes *int `yaml:"changes,omitempty"`

	// Ok is the expected boolean returned by undo/redo steps.
	Ok *bool `yaml:"ok,omitempty"`
}

// Assertion validates final world state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the expected entity count (entity_count).
	Count int `yaml:"count,omitempty"`

	// Name selects an entity by name (entity).
	Name string `yaml:"name,omitempty"`

	// Fields are expected field values, subset match
	// (entity, player, settings).
	Fields map[string]any `yaml:"fields,omitempty"`
}

// Assertion type constants.
const (
	AssertEntityCount = "entity_count"
	AssertEntity      = "entity"
	AssertPlayer      = "player"
	AssertSettings    = "settings"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected to catch typos.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", path, err)
	}

	if err := sc.validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &sc, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	for i, step := range s.Steps {
		set := 0
		if step.Script != "" {
			set++
		}
		if step.Undo {
			set++
		}
		if step.Redo {
			set++
		}
		if set != 1 {
			return fmt.Errorf("step %d: exactly one of script, undo, redo must be set", i)
		}
	}
	for i, a := range s.Assertions {
		switch a.Type {
		case AssertEntityCount, AssertEntity, AssertPlayer, AssertSettings:
		default:
			return fmt.Errorf("assertion %d: unknown type %q", i, a.Type)
		}
		if a.Type == AssertEntity && a.Name == "" {
			return fmt.Errorf("assertion %d: entity assertion needs a name", i)
		}
	}
	return nil
}
