// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
)

//go:embed scenario_default.yaml
var defaultScenarioYAML []byte

// Scenario scripts the workflow the simulator plays for every project.
type Scenario struct {
	Name   string          `yaml:"name"`
	Stages []ScenarioStage `yaml:"stages"`
	Done   string          `yaml:"done"`
}

// ScenarioStage is one workflow stage.
type ScenarioStage struct {
	Stage    string         `yaml:"stage"`
	Agent    string         `yaml:"agent"`
	Thinking []string       `yaml:"thinking"`
	Files    []ScenarioFile `yaml:"files"`
	Review   string         `yaml:"review"` // prompt; empty means no review gate
	Fail     bool           `yaml:"fail"`   // emit stage_failed instead of stage_completed
	Requires string         `yaml:"requires"`
}

// ScenarioFile is a file a stage generates. Content may reference
// {{name}}, {{type}} and {{requirements}}.
type ScenarioFile struct {
	Path    string `yaml:"path"`
	DocType string `yaml:"doc_type"`
	Content string `yaml:"content"`
}

// DefaultScenario returns the built-in five stage scenario.
func DefaultScenario() (*Scenario, error) {
	return ParseScenario(defaultScenarioYAML)
}

// LoadScenario reads a scenario file, or the built-in one when path is empty.
func LoadScenario(path string) (*Scenario, error) {
	if path == "" {
		return DefaultScenario()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(sc.Stages) == 0 {
		return nil, fmt.Errorf("scenario %q has no stages", sc.Name)
	}
	for i, st := range sc.Stages {
		if _, ok := models.ParseStage(st.Stage); !ok {
			return nil, fmt.Errorf("scenario stage %d: unknown stage %q", i, st.Stage)
		}
		for _, f := range st.Files {
			if _, err := cleanPath(f.Path); err != nil {
				return nil, fmt.Errorf("scenario stage %s: bad file path %q", st.Stage, f.Path)
			}
		}
	}
	return &sc, nil
}

// enabled reports whether the stage runs for p. Stages can require the
// generate_tests or generate_devops flag.
func (st ScenarioStage) enabled(p Project) bool {
	switch st.Requires {
	case "generate_tests":
		return p.GenerateTests
	case "generate_devops":
		return p.GenerateDevOps
	default:
		return true
	}
}

func expand(tmpl string, p Project) string {
	return strings.NewReplacer(
		"{{name}}", p.Name,
		"{{type}}", p.Type,
		"{{requirements}}", p.Requirements,
	).Replace(tmpl)
}
