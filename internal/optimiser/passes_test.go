package optimiser

import (
	"testing"

	"github.com/brennhill/gasoline-scenarios/internal/scenario"
)

func typeAction(ts int64, primary, text string) scenario.Action {
	a := scenario.Action{Kind: scenario.ActionType, Timestamp: ts, Selector: &scenario.SelectorRecord{Primary: primary}}
	_ = a.SetData(scenario.TypeData{Text: text})
	return a
}

func clickAction(ts int64, primary string, info scenario.ElementInfo) scenario.Action {
	a := scenario.Action{Kind: scenario.ActionClick, Timestamp: ts, Selector: &scenario.SelectorRecord{Primary: primary, ElementInfo: info}}
	_ = a.SetData(scenario.ClickData{})
	return a
}

func waitAction(ts, ms int64) scenario.Action {
	a := scenario.Action{Kind: scenario.ActionWait, Timestamp: ts}
	_ = a.SetData(scenario.WaitData{Mode: scenario.WaitDuration, Ms: ms})
	return a
}

func scrollAction(ts int64, x, y int) scenario.Action {
	a := scenario.Action{Kind: scenario.ActionScroll, Timestamp: ts}
	_ = a.SetData(scenario.ScrollData{X: x, Y: y})
	return a
}

func hoverAction(ts int64, primary string) scenario.Action {
	a := scenario.Action{Kind: scenario.ActionHover, Timestamp: ts, Selector: &scenario.SelectorRecord{Primary: primary}}
	_ = a.SetData(struct{}{})
	return a
}

func TestStripWidgetActions(t *testing.T) {
	in := []scenario.Action{
		clickAction(1, "#gasoline-recorder-widget-btn", scenario.ElementInfo{}),
		clickAction(2, "#submit", scenario.ElementInfo{}),
	}
	out := StripWidgetActions(in)
	if len(out) != 1 || out[0].Selector.Primary != "#submit" {
		t.Fatalf("StripWidgetActions() = %v", out)
	}
}

func TestCoalesceSequentialTypesKeepsLast(t *testing.T) {
	in := []scenario.Action{
		typeAction(1, "#email", "a"),
		typeAction(2, "#email", "ab"),
		typeAction(3, "#email", "abc"),
	}
	out := CoalesceSequentialTypes(in)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	td, _ := out[0].TypeAction()
	if td.Text != "abc" {
		t.Fatalf("Text = %q, want abc", td.Text)
	}
}

func TestDetectCustomSelectRewritesPattern(t *testing.T) {
	in := []scenario.Action{
		clickAction(1000, ".dropdown-trigger", scenario.ElementInfo{Classes: []string{"dropdown-trigger"}}),
		waitAction(1050, 300),
		clickAction(1400, ".option-red", scenario.ElementInfo{Classes: []string{"option-red"}}),
	}
	out := DetectCustomSelect(in)
	if len(out) != 1 || out[0].Kind != scenario.ActionSelect {
		t.Fatalf("DetectCustomSelect() = %v", out)
	}
	sd, err := out[0].Select()
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if sd.Mode != scenario.SelectCustom || len(sd.Steps) != 3 {
		t.Fatalf("SelectData = %+v", sd)
	}
}

func TestRemoveDuplicateClicksKeepsLater(t *testing.T) {
	in := []scenario.Action{
		clickAction(1000, "#submit", scenario.ElementInfo{}),
		clickAction(1200, "#submit", scenario.ElementInfo{}),
	}
	out := RemoveDuplicateClicks(in)
	if len(out) != 1 || out[0].Timestamp != 1200 {
		t.Fatalf("RemoveDuplicateClicks() = %v", out)
	}
}

func TestRemoveDuplicateClicksKeepsClicksOutsideWindow(t *testing.T) {
	in := []scenario.Action{
		clickAction(1000, "#submit", scenario.ElementInfo{}),
		clickAction(2000, "#submit", scenario.ElementInfo{}),
	}
	out := RemoveDuplicateClicks(in)
	if len(out) != 2 {
		t.Fatalf("RemoveDuplicateClicks() = %v, want both kept", out)
	}
}

func TestMergeSequentialWaitsSumsDurations(t *testing.T) {
	in := []scenario.Action{waitAction(1, 200), waitAction(2, 300), waitAction(3, 100)}
	out := MergeSequentialWaits(in)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	wd, _ := out[0].Wait()
	if wd.Ms != 600 {
		t.Fatalf("Ms = %d, want 600", wd.Ms)
	}
}

func TestRemoveRedundantScrollsKeepsLast(t *testing.T) {
	in := []scenario.Action{
		scrollAction(1, 0, 100),
		waitAction(2, 50),
		scrollAction(3, 0, 500),
	}
	out := RemoveRedundantScrolls(in)
	if len(out) != 2 {
		t.Fatalf("RemoveRedundantScrolls() = %v", out)
	}
	sd, _ := out[1].Scroll()
	if sd.Y != 500 {
		t.Fatalf("final scroll Y = %d, want 500", sd.Y)
	}
}

func TestRemoveRedundantHoversDropsPreClick(t *testing.T) {
	in := []scenario.Action{
		hoverAction(1, "#btn"),
		clickAction(2, "#btn", scenario.ElementInfo{}),
	}
	out := RemoveRedundantHovers(in)
	if len(out) != 1 || out[0].Kind != scenario.ActionClick {
		t.Fatalf("RemoveRedundantHovers() = %v", out)
	}
}

func TestRemoveRedundantHoversDropsRepeats(t *testing.T) {
	in := []scenario.Action{hoverAction(1, "#btn"), hoverAction(2, "#btn")}
	out := RemoveRedundantHovers(in)
	if len(out) != 1 {
		t.Fatalf("RemoveRedundantHovers() = %v", out)
	}
}

func TestOptimiseIsIdempotent(t *testing.T) {
	in := []scenario.Action{
		typeAction(1, "#email", "a"),
		typeAction(2, "#email", "ab"),
		clickAction(3, "#submit", scenario.ElementInfo{}),
	}
	once := Optimise(in)
	twice := Optimise(once)
	if len(once) != len(twice) {
		t.Fatalf("Optimise() not idempotent: once=%v twice=%v", once, twice)
	}
}
