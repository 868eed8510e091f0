package scenario

import (
	"encoding/json"
	"testing"
	"time"
)

func sampleScenario(t *testing.T) *Scenario {
	t.Helper()
	s := &Scenario{
		Name:      "login_flow",
		Version:   "1",
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Metadata: Metadata{
			Description: "log in",
			Parameters: map[string]Parameter{
				"email":    {Type: "string", Required: true},
				"password": {Type: "string", Required: true},
			},
		},
	}

	typeEmail := Action{Kind: ActionType, Timestamp: 1, Selector: &SelectorRecord{Primary: "#email"}}
	if err := typeEmail.SetData(TypeData{Text: "{{email}}", IsSecret: true, ParamName: "email"}); err != nil {
		t.Fatal(err)
	}
	typePassword := Action{Kind: ActionType, Timestamp: 2, Selector: &SelectorRecord{Primary: "#password"}}
	if err := typePassword.SetData(TypeData{Text: "{{password}}", IsSecret: true, ParamName: "password"}); err != nil {
		t.Fatal(err)
	}
	click := Action{Kind: ActionClick, Timestamp: 3, Selector: &SelectorRecord{Primary: "button[type=submit]"}}
	if err := click.SetData(ClickData{}); err != nil {
		t.Fatal(err)
	}

	s.Chain = []Action{typeEmail, typePassword, click}
	return s
}

func TestScenarioRoundTrip(t *testing.T) {
	s := sampleScenario(t)

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var loaded Scenario
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if loaded.Name != s.Name || loaded.Version != s.Version {
		t.Fatalf("round trip mismatch: got %+v", loaded)
	}
	if len(loaded.Chain) != 3 {
		t.Fatalf("Chain len = %d, want 3", len(loaded.Chain))
	}
	td, err := loaded.Chain[0].TypeAction()
	if err != nil {
		t.Fatalf("TypeAction() error = %v", err)
	}
	if td.Text != "{{email}}" || !td.IsSecret {
		t.Fatalf("TypeData = %+v", td)
	}
}

func TestScenarioRoundTripPreservesUnknownFields(t *testing.T) {
	raw := []byte(`{
		"name": "login_flow",
		"version": "1",
		"created_at": "2026-01-01T00:00:00Z",
		"metadata": {"description": "log in", "future_field": "x"},
		"chain": [{"type": "navigate", "timestamp": 1, "data": {"url": "https://example.com"}, "future_action_field": true}],
		"future_top_level_field": 42
	}`)

	var s Scenario
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	out, err := json.Marshal(&s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var roundTripped map[string]any
	if err := json.Unmarshal(out, &roundTripped); err != nil {
		t.Fatalf("Unmarshal(out) error = %v", err)
	}
	if roundTripped["future_top_level_field"] != float64(42) {
		t.Fatalf("future_top_level_field not preserved: %v", roundTripped)
	}

	var metadata map[string]any
	if err := json.Unmarshal(out, &struct {
		Metadata *map[string]any `json:"metadata"`
	}{&metadata}); err != nil {
		t.Fatal(err)
	}
	if metadata["future_field"] != "x" {
		t.Fatalf("metadata.future_field not preserved: %v", metadata)
	}
}

func TestPlaceholders(t *testing.T) {
	s := sampleScenario(t)
	got := s.Placeholders()
	if !got["email"] || !got["password"] || len(got) != 2 {
		t.Fatalf("Placeholders() = %v", got)
	}
}

func TestValidateRejectsEmptyChain(t *testing.T) {
	s := &Scenario{Name: "empty"}
	if err := s.Validate(); err == nil {
		t.Fatal("Validate() expected error for empty chain")
	}
}

func TestValidateRejectsUndeclaredPlaceholder(t *testing.T) {
	s := sampleScenario(t)
	delete(s.Metadata.Parameters, "password")
	if err := s.Validate(); err == nil {
		t.Fatal("Validate() expected error for undeclared placeholder")
	}
}

func TestSelectorRecordPromoteFallback(t *testing.T) {
	sel := &SelectorRecord{Primary: "#stale-id", Fallbacks: []string{".btn-submit", "button:nth-of-type(2)"}}
	if !sel.PromoteFallback() {
		t.Fatal("PromoteFallback() = false, want true")
	}
	if sel.Primary != ".btn-submit" {
		t.Fatalf("Primary = %q, want %q", sel.Primary, ".btn-submit")
	}
	if len(sel.Fallbacks) != 1 || sel.Fallbacks[0] != "button:nth-of-type(2)" {
		t.Fatalf("Fallbacks = %v", sel.Fallbacks)
	}
}

func TestSelectorRecordPromoteFallbackEmpty(t *testing.T) {
	sel := &SelectorRecord{Primary: "#only"}
	if sel.PromoteFallback() {
		t.Fatal("PromoteFallback() = true, want false")
	}
}
