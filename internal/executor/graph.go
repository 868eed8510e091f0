// Package executor implements the dependency resolver and per-action
// executor (spec.md §4.6, C6). Grounded on the teacher's
// internal/recording/playback_engine.go (PlaybackSession, PlaybackResult,
// the executeClickWithHealing strategy-ladder shape) and
// internal/recording/playback.go's single-recording linear executor,
// generalized here into a dependency-graph resolver with cycle detection
// and a retry+fallback-promotion+smart-find recovery ladder.
package executor

import (
	"fmt"
	"strings"

	"github.com/brennhill/gasoline-scenarios/internal/scenario"
)

// ScenarioLookup resolves a scenario by name, the boundary this package
// needs from storage without depending on it directly.
type ScenarioLookup interface {
	Get(name string) (*scenario.Scenario, error)
}

// CycleError reports a dependency cycle, carrying the recorded path suffix
// from the repeated node back to itself (spec.md §4.6 "Cycle detection").
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency_cycle: %s", strings.Join(e.Path, " -> "))
}

// resolveChain performs a post-order DFS from root, building the execution
// chain (dependencies before dependents, root last) and detecting cycles
// via visiting/visited sets (spec.md §4.6 "Graph construction",
// "Cycle detection", "Topological order").
func resolveChain(lookup ScenarioLookup, root string) ([]string, error) {
	visiting := map[string]bool{}
	visited := map[string]bool{}
	var chain []string
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		if visited[name] {
			return nil
		}
		if visiting[name] {
			path := append(append([]string(nil), stack...), name)
			return &CycleError{Path: path}
		}
		visiting[name] = true
		stack = append(stack, name)

		sc, err := lookup.Get(name)
		if err != nil {
			return fmt.Errorf("dependency_unresolved: %q: %w", name, err)
		}
		for _, dep := range sc.Metadata.Dependencies {
			if err := visit(dep.Scenario); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		visiting[name] = false
		visited[name] = true
		chain = append(chain, name)
		return nil
	}

	if err := visit(root); err != nil {
		return nil, err
	}
	return chain, nil
}

// ParamWarning is a non-fatal type mismatch between a supplied parameter
// and its declared type (spec.md §4.6 "Dependency-chain validation").
type ParamWarning struct {
	Scenario  string
	Parameter string
	Declared  string
}

// ValidateChain walks chain in order, maintaining an available-parameters
// set seeded from callerParams, and returns a missing-parameter error the
// first time a required parameter isn't available; declared outputs are
// added to the set as the walk proceeds (spec.md §4.6 "Dependency-chain
// validation").
func ValidateChain(lookup ScenarioLookup, chain []string, callerParams map[string]string) ([]ParamWarning, error) {
	available := map[string]bool{}
	for k := range callerParams {
		available[k] = true
	}

	var warnings []ParamWarning
	for _, name := range chain {
		sc, err := lookup.Get(name)
		if err != nil {
			return warnings, fmt.Errorf("dependency_unresolved: %q: %w", name, err)
		}
		for paramName, param := range sc.Metadata.Parameters {
			if param.Required && !available[paramName] {
				return warnings, fmt.Errorf("missing_parameter: scenario %q requires parameter %q", name, paramName)
			}
			if v, ok := callerParams[paramName]; ok && param.Type != "" && !typeMatches(param.Type, v) {
				warnings = append(warnings, ParamWarning{Scenario: name, Parameter: paramName, Declared: param.Type})
			}
		}
		for _, out := range sc.Metadata.Outputs {
			available[out] = true
		}
	}
	return warnings, nil
}

// dependencyGuards walks every scenario in chain and records, for each
// scenario it depends on, the condition guarding that dependency edge.
// The first declaration wins if more than one scenario in the chain
// depends on the same target with different conditions — spec.md leaves
// that case undefined, and this matches the "first match" posture taken
// for dependency-edge lookups elsewhere in this package.
func dependencyGuards(lookup ScenarioLookup, chain []string) (map[string]*scenario.Guard, error) {
	guards := map[string]*scenario.Guard{}
	for _, name := range chain {
		sc, err := lookup.Get(name)
		if err != nil {
			return nil, fmt.Errorf("dependency_unresolved: %q: %w", name, err)
		}
		for _, dep := range sc.Metadata.Dependencies {
			if _, exists := guards[dep.Scenario]; exists {
				continue
			}
			guards[dep.Scenario] = dep.Condition
		}
	}
	return guards, nil
}

// typeMatches is a loose runtime check since caller-supplied parameters
// arrive as strings; it only distinguishes the coarse shapes spec.md's
// parameter.type names (string/number/boolean), defaulting to a pass for
// anything else.
func typeMatches(declared, value string) bool {
	switch declared {
	case "number":
		for _, r := range value {
			if (r < '0' || r > '9') && r != '.' && r != '-' {
				return false
			}
		}
		return value != ""
	case "boolean":
		return value == "true" || value == "false"
	default:
		return true
	}
}
