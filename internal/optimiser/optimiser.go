// Package optimiser implements the action optimiser (spec.md §4.4, C4): a
// pure post-recording pass that turns a raw captured action buffer into a
// deterministic, storable chain. Grounded on the teacher's
// internal/recording/playback_engine.go style of single-purpose,
// independently testable functions (there: DetectFragileSelectors,
// executeClickWithHealing, tryClickSelector, each a standalone concern
// chained by the caller) rather than a generic visitor/rule-engine
// abstraction.
package optimiser

import (
	"strings"

	"github.com/brennhill/gasoline-scenarios/internal/scenario"
)

// WidgetSelectorMarker is the substring identifying a selector as
// targeting the recorder's own control widget rather than page content.
const WidgetSelectorMarker = "gasoline-recorder-widget"

// Optimise runs the seven fixed passes of spec.md §4.4 in order, so the
// result is deterministic for a given raw buffer.
func Optimise(raw []scenario.Action) []scenario.Action {
	chain := append([]scenario.Action(nil), raw...)
	chain = StripWidgetActions(chain)
	chain = CoalesceSequentialTypes(chain)
	chain = DetectCustomSelect(chain)
	chain = RemoveDuplicateClicks(chain)
	chain = MergeSequentialWaits(chain)
	chain = RemoveRedundantScrolls(chain)
	chain = RemoveRedundantHovers(chain)
	return chain
}

// StripWidgetActions drops any action whose selector references the
// recorder's own widget (spec.md §4.4 pass 1).
func StripWidgetActions(actions []scenario.Action) []scenario.Action {
	out := make([]scenario.Action, 0, len(actions))
	for _, a := range actions {
		if a.Selector != nil && strings.Contains(a.Selector.Primary, WidgetSelectorMarker) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func samePrimarySelector(a, b *scenario.SelectorRecord) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Primary == b.Primary
}
