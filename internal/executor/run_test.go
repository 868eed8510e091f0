package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/brennhill/gasoline-scenarios/internal/scenario"
)

func TestRunExecutesDependencyChainInOrder(t *testing.T) {
	login := scenarioWithChain("login", []scenario.Action{clickAction("#login", nil, "")})
	dashboard := withDependency(scenarioWithChain("dashboard", []scenario.Action{clickAction("#open", nil, "")}), "login")

	driver := &fakePageDriver{}
	lookup := fakeLookup{"login": login, "dashboard": dashboard}

	result := Run(context.Background(), lookup, driver, "dashboard", RunOptions{
		Parameters:          map[string]string{},
		ExecuteDependencies: true,
		MaxRetries:          3,
	})

	if !result.Success {
		t.Fatalf("Run failed: %v", result.Err)
	}
	want := []string{"login", "dashboard"}
	if !equalSlices(result.ExecutedScenarios, want) {
		t.Fatalf("ExecutedScenarios = %v, want %v", result.ExecutedScenarios, want)
	}
}

func TestRunTruncatesWhenExecuteDependenciesFalse(t *testing.T) {
	login := scenarioWithChain("login", []scenario.Action{clickAction("#login", nil, "")})
	dashboard := withDependency(scenarioWithChain("dashboard", []scenario.Action{clickAction("#open", nil, "")}), "login")

	driver := &fakePageDriver{}
	lookup := fakeLookup{"login": login, "dashboard": dashboard}

	result := Run(context.Background(), lookup, driver, "dashboard", RunOptions{
		ExecuteDependencies: false,
		MaxRetries:          3,
	})

	if !result.Success {
		t.Fatalf("Run failed: %v", result.Err)
	}
	want := []string{"dashboard"}
	if !equalSlices(result.ExecutedScenarios, want) {
		t.Fatalf("ExecutedScenarios = %v, want %v (dependencies validated but not executed)", result.ExecutedScenarios, want)
	}
}

func TestRunSkipsGuardedDependency(t *testing.T) {
	login := scenarioWithChain("login", []scenario.Action{clickAction("#login", nil, "")})
	dashboard := withDependencyCondition(
		scenarioWithChain("dashboard", []scenario.Action{clickAction("#open", nil, "")}),
		"login",
		&scenario.Guard{Kind: scenario.GuardIsAuthenticated, SkipIf: true},
	)

	driver := &fakePageDriver{authenticated: true}
	lookup := fakeLookup{"login": login, "dashboard": dashboard}

	result := Run(context.Background(), lookup, driver, "dashboard", RunOptions{
		ExecuteDependencies: true,
		MaxRetries:          3,
	})

	if !result.Success {
		t.Fatalf("Run failed: %v", result.Err)
	}
	want := []string{"dashboard"}
	if !equalSlices(result.ExecutedScenarios, want) {
		t.Fatalf("ExecutedScenarios = %v, want %v (login skipped: already authenticated)", result.ExecutedScenarios, want)
	}
}

func TestRunAbortsOnActionFailure(t *testing.T) {
	failing := scenarioWithChain("failing", []scenario.Action{clickAction("#missing", nil, "")})
	driver := &fakePageDriver{
		dispatchFn: func(ctx context.Context, a scenario.Action) (string, error) {
			return "", errors.New("element not found")
		},
	}
	lookup := fakeLookup{"failing": failing}

	result := Run(context.Background(), lookup, driver, "failing", RunOptions{MaxRetries: 1})

	if result.Success {
		t.Fatal("expected Run to fail")
	}
	if len(result.ExecutedScenarios) != 0 {
		t.Fatalf("ExecutedScenarios = %v, want empty", result.ExecutedScenarios)
	}
	if _, ok := result.Err.(*ActionFailure); !ok {
		t.Fatalf("expected *ActionFailure, got %T: %v", result.Err, result.Err)
	}
}

func TestRunMergesExtractedOutputs(t *testing.T) {
	producer := scenarioWithChain("producer", []scenario.Action{extractAction("#total", "orderTotal")})
	driver := &fakePageDriver{
		dispatchFn: func(ctx context.Context, a scenario.Action) (string, error) {
			return "42.00", nil
		},
	}
	lookup := fakeLookup{"producer": producer}

	result := Run(context.Background(), lookup, driver, "producer", RunOptions{MaxRetries: 1})
	if !result.Success {
		t.Fatalf("Run failed: %v", result.Err)
	}
	if result.Outputs["orderTotal"] != "42.00" {
		t.Fatalf("Outputs[orderTotal] = %q, want %q", result.Outputs["orderTotal"], "42.00")
	}
}

func TestRunReferentialErrorAbortsBeforeAnyDispatch(t *testing.T) {
	dashboard := withDependency(scenarioWithChain("dashboard", []scenario.Action{clickAction("#open", nil, "")}), "missing-login")
	driver := &fakePageDriver{}
	lookup := fakeLookup{"dashboard": dashboard}

	result := Run(context.Background(), lookup, driver, "dashboard", RunOptions{ExecuteDependencies: true})
	if result.Success {
		t.Fatal("expected referential error")
	}
	if len(driver.dispatched) != 0 {
		t.Fatalf("dispatched %d actions, want 0 — referential errors must abort before any page action runs", len(driver.dispatched))
	}
}
