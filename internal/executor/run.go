package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brennhill/gasoline-scenarios/internal/scenario"
)

// RunOptions configures a single execute-scenario request.
type RunOptions struct {
	// Parameters are the caller-supplied runtime parameter values.
	Parameters map[string]string
	// ExecuteDependencies, when false, still validates the full
	// dependency graph but truncates the executed chain to the
	// requested scenario alone (DESIGN.md decision 1).
	ExecuteDependencies bool
	MaxRetries          int
}

// ExecutionResult is the overall execute-scenario outcome (spec.md §4.6
// "Execution result"). RunID identifies this run in logs and diagnostics
// tying together attempt histories that span several scenarios.
type ExecutionResult struct {
	RunID             string
	Success           bool
	ExecutedScenarios []string
	Outputs           map[string]string
	Err               error
	Duration          time.Duration
}

// Run resolves rootName's dependency graph, validates it, and executes
// the resulting chain in topological order, applying guards, parameter
// substitution, dispatch-with-retry, and post-click settlement to every
// action (spec.md §4.6).
func Run(ctx context.Context, lookup ScenarioLookup, driver PageDriver, rootName string, opts RunOptions) *ExecutionResult {
	started := timeNow()
	result := &ExecutionResult{RunID: uuid.NewString(), Outputs: map[string]string{}}
	defer func() { result.Duration = timeNow().Sub(started) }()

	chain, err := resolveChain(lookup, rootName)
	if err != nil {
		result.Err = err
		return result
	}
	if _, err := ValidateChain(lookup, chain, opts.Parameters); err != nil {
		result.Err = err
		return result
	}

	execChain := chain
	if !opts.ExecuteDependencies {
		execChain = []string{rootName}
	}

	guards, err := dependencyGuards(lookup, chain)
	if err != nil {
		result.Err = err
		return result
	}

	execCtx := newExecutionContext(opts.Parameters)

	for _, name := range execChain {
		sc, err := lookup.Get(name)
		if err != nil {
			result.Err = fmt.Errorf("dependency_unresolved: %q: %w", name, err)
			return result
		}

		if name != rootName {
			if g := guards[name]; g != nil {
				ok, serr := evaluateGuard(ctx, driver, g, execCtx)
				if serr != nil {
					result.Err = serr
					return result
				}
				if !ok {
					continue
				}
			}
		}

		if err := refreshPageState(ctx, driver, execCtx); err != nil {
			result.Err = err
			return result
		}

		if err := executeScenario(ctx, driver, sc, execCtx, opts.MaxRetries); err != nil {
			result.Err = err
			return result
		}
		result.ExecutedScenarios = append(result.ExecutedScenarios, name)
	}

	for k, v := range execCtx.AvailableParameters {
		result.Outputs[k] = v
	}
	result.Success = true
	return result
}

func refreshPageState(ctx context.Context, driver PageDriver, execCtx *ExecutionContext) error {
	url, err := driver.CurrentURL(ctx)
	if err != nil {
		return err
	}
	title, err := driver.CurrentTitle(ctx)
	if err != nil {
		return err
	}
	execCtx.Variables["__url"] = url
	execCtx.Variables["__title"] = title
	return nil
}

// executeScenario runs sc's chain in order, aborting the scenario (and
// per spec.md §7's propagation policy, the whole request) on the first
// action failure.
func executeScenario(ctx context.Context, driver PageDriver, sc *scenario.Scenario, execCtx *ExecutionContext, maxRetries int) error {
	for i, a := range sc.Chain {
		substituted, err := substituteAction(a, execCtx.AvailableParameters)
		if err != nil {
			return err
		}

		extracted, _, err := executeActionWithRetry(ctx, driver, substituted, maxRetries)
		if err != nil {
			if failure, ok := err.(*ActionFailure); ok {
				failure.ScenarioName = sc.Name
				failure.ActionIndex = i
			}
			return err
		}

		if a.Kind == scenario.ActionClick {
			if click, cerr := a.Click(); cerr == nil && click.RequiresWait {
				settle(ctx, driver, 0)
			}
		}

		if a.Kind == scenario.ActionExtract {
			if ext, eerr := a.Extract(); eerr == nil && ext.OutputName != "" {
				execCtx.AvailableParameters[ext.OutputName] = extracted
				execCtx.Variables[ext.OutputName] = extracted
			}
		}
	}
	return nil
}

func timeNow() time.Time { return time.Now() }
