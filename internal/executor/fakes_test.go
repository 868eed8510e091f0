package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/brennhill/gasoline-scenarios/internal/scenario"
)

// fakeLookup is an in-memory ScenarioLookup test double.
type fakeLookup map[string]*scenario.Scenario

func (f fakeLookup) Get(name string) (*scenario.Scenario, error) {
	sc, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("scenario not found: %s", name)
	}
	return sc, nil
}

// fakePageDriver is an in-memory PageDriver test double. Each method
// defers to an optional function field so individual tests can script
// exactly the sequence of responses they need; unset fields fall back to
// a permissive default.
type fakePageDriver struct {
	dispatchFn        func(ctx context.Context, a scenario.Action) (string, error)
	elementExistsFn   func(ctx context.Context, selector string) (bool, error)
	smartFindFn       func(ctx context.Context, text string) ([]string, error)
	diagnoseFn        func(ctx context.Context, selector string) (Diagnostics, error)
	isAuthenticatedFn func(ctx context.Context) (bool, error)

	url           string
	title         string
	authenticated bool

	dispatched []scenario.Action
}

func (d *fakePageDriver) Dispatch(ctx context.Context, a scenario.Action) (string, error) {
	d.dispatched = append(d.dispatched, a)
	if d.dispatchFn != nil {
		return d.dispatchFn(ctx, a)
	}
	return "", nil
}

func (d *fakePageDriver) ElementExists(ctx context.Context, selector string) (bool, error) {
	if d.elementExistsFn != nil {
		return d.elementExistsFn(ctx, selector)
	}
	return true, nil
}

func (d *fakePageDriver) SmartFind(ctx context.Context, text string) ([]string, error) {
	if d.smartFindFn != nil {
		return d.smartFindFn(ctx, text)
	}
	return nil, nil
}

func (d *fakePageDriver) Diagnose(ctx context.Context, selector string) (Diagnostics, error) {
	if d.diagnoseFn != nil {
		return d.diagnoseFn(ctx, selector)
	}
	return Diagnostics{}, nil
}

func (d *fakePageDriver) CurrentURL(ctx context.Context) (string, error)   { return d.url, nil }
func (d *fakePageDriver) CurrentTitle(ctx context.Context) (string, error) { return d.title, nil }

func (d *fakePageDriver) IsAuthenticated(ctx context.Context) (bool, error) {
	if d.isAuthenticatedFn != nil {
		return d.isAuthenticatedFn(ctx)
	}
	return d.authenticated, nil
}

func (d *fakePageDriver) NoAnimationsPending(ctx context.Context) (bool, error) { return true, nil }
func (d *fakePageDriver) NetworkIdleFor(ctx context.Context, dur time.Duration) (bool, error) {
	return true, nil
}
func (d *fakePageDriver) DOMStableFor(ctx context.Context, dur time.Duration) (bool, error) {
	return true, nil
}

func scenarioWithChain(name string, chain []scenario.Action) *scenario.Scenario {
	return &scenario.Scenario{Name: name, Version: "1", Chain: chain}
}

func clickAction(primary string, fallbacks []string, text string) scenario.Action {
	a := scenario.Action{
		Kind:     scenario.ActionClick,
		Selector: &scenario.SelectorRecord{Primary: primary, Fallbacks: fallbacks, ElementInfo: scenario.ElementInfo{Text: text}},
	}
	_ = a.SetData(scenario.ClickData{Text: text})
	return a
}

func extractAction(primary, outputName string) scenario.Action {
	a := scenario.Action{
		Kind:     scenario.ActionExtract,
		Selector: &scenario.SelectorRecord{Primary: primary},
	}
	_ = a.SetData(scenario.ExtractData{OutputName: outputName})
	return a
}
