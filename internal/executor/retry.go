package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brennhill/gasoline-scenarios/internal/scenario"
)

const (
	defaultMaxRetries = 3
	retryWait         = 1 * time.Second
)

// Attempt records one dispatch attempt for the final diagnostic
// (spec.md §4.6 "Retry and recovery": "attempts listing").
type Attempt struct {
	Number   int    `json:"number"`
	Selector string `json:"selector"`
	Error    string `json:"error,omitempty"`
}

// ActionFailure is the structured diagnostic a final action failure
// carries — "the design's contract with the calling agent" (spec.md §4.6).
type ActionFailure struct {
	ScenarioName string
	ActionIndex  int
	Kind         scenario.ActionKind
	Selector     string
	Attempts     []Attempt
	Diagnostics  Diagnostics
	Suggestions  []string
}

func (f *ActionFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "playback_failed: scenario %q action #%d (%s) on %q failed after %d attempt(s)",
		f.ScenarioName, f.ActionIndex, f.Kind, f.Selector, len(f.Attempts))
	for _, a := range f.Attempts {
		fmt.Fprintf(&b, "\n  attempt %d: selector=%q", a.Number, a.Selector)
		if a.Error != "" {
			fmt.Fprintf(&b, " error=%q", a.Error)
		}
	}
	if !f.Diagnostics.SelectorExists {
		b.WriteString("\n  diagnosis: element does not exist in the current document")
	} else if !f.Diagnostics.Visible {
		b.WriteString("\n  diagnosis: element exists but is not visible")
	}
	for _, s := range f.Suggestions {
		fmt.Fprintf(&b, "\n  suggestion: %s", s)
	}
	return b.String()
}

// executeActionWithRetry dispatches a via driver up to maxRetries times,
// promoting the next fallback selector on failure, falling back to the
// external smart finder when fallbacks are exhausted and element text is
// known, and waiting retryWait between attempts (spec.md §4.6 "Retry and
// recovery"). a must already have had parameter substitution applied.
func executeActionWithRetry(ctx context.Context, driver PageDriver, a scenario.Action, maxRetries int) (string, []Attempt, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var attempts []Attempt
	current := a

	for attempt := 1; attempt <= maxRetries; attempt++ {
		selectorUsed := selectorPrimary(current.Selector)

		extracted, err := driver.Dispatch(ctx, current)
		record := Attempt{Number: attempt, Selector: selectorUsed}
		if err != nil {
			record.Error = err.Error()
		}
		attempts = append(attempts, record)

		if err == nil {
			return extracted, attempts, nil
		}
		if attempt == maxRetries {
			break
		}

		switch {
		case current.Selector != nil && current.Selector.PromoteFallback():
			// promoted in place, retried immediately next loop iteration.
		case current.Selector != nil && current.Selector.ElementInfo.Text != "":
			if candidates, ferr := driver.SmartFind(ctx, current.Selector.ElementInfo.Text); ferr == nil && len(candidates) > 0 {
				current.Selector.Primary = candidates[0]
				if len(candidates) > 1 {
					current.Selector.Fallbacks = append([]string(nil), candidates[1:]...)
				} else {
					current.Selector.Fallbacks = nil
				}
			}
		}

		sleep(ctx, retryWait)
	}

	var diag Diagnostics
	finalSelector := selectorPrimary(current.Selector)
	if finalSelector != "" {
		if d, derr := driver.Diagnose(ctx, finalSelector); derr == nil {
			diag = d
		}
	}

	return "", attempts, &ActionFailure{
		Kind:        a.Kind,
		Selector:    finalSelector,
		Attempts:    attempts,
		Diagnostics: diag,
		Suggestions: buildSuggestions(diag),
	}
}

func selectorPrimary(s *scenario.SelectorRecord) string {
	if s == nil {
		return ""
	}
	return s.Primary
}

// buildSuggestions turns a captured Diagnostics into the prioritised,
// human-readable suggestion list spec.md §4.6 requires.
func buildSuggestions(d Diagnostics) []string {
	var out []string
	switch {
	case !d.SelectorExists:
		out = append(out, "element might be dynamically added; consider widening the wait before this action")
	case !d.Visible:
		out = append(out, "wait for element to become visible")
	}
	if d.PointerEvents == "none" {
		out = append(out, "overlay may be intercepting pointer events")
	}
	if d.ModalPresent {
		out = append(out, "a modal or overlay is present and may be blocking interaction")
	}
	if d.Disabled {
		out = append(out, "element is disabled")
	}
	if d.ReadOnly {
		out = append(out, "element is read-only")
	}
	if !d.PageReady {
		out = append(out, "page has not finished loading")
	}
	return out
}
