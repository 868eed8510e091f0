package optimiser

import (
	"strings"

	"github.com/brennhill/gasoline-scenarios/internal/scenario"
)

// CoalesceSequentialTypes collapses a run of type actions targeting the
// same primary selector into the last one in the run, since debounced
// typing effectively produces progressive values and only the final value
// (and its secret metadata) is the latest truth (spec.md §4.4 pass 2).
func CoalesceSequentialTypes(actions []scenario.Action) []scenario.Action {
	out := make([]scenario.Action, 0, len(actions))
	for i := 0; i < len(actions); i++ {
		a := actions[i]
		if a.Kind != scenario.ActionType {
			out = append(out, a)
			continue
		}
		j := i
		for j+1 < len(actions) && actions[j+1].Kind == scenario.ActionType && samePrimarySelector(actions[j+1].Selector, a.Selector) {
			j++
		}
		out = append(out, actions[j])
		i = j
	}
	return out
}

var containerKeywords = []string{"select", "dropdown", "picker", "choice", "menu"}
var optionKeywords = []string{"option", "item", "choice", "menu-item"}

func matchesAny(info scenario.ElementInfo, keywords []string) bool {
	fields := append([]string{info.ID, info.Role}, info.Classes...)
	haystack := strings.ToLower(strings.Join(fields, " "))
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

const customSelectMaxGapMs = 1000

// DetectCustomSelect rewrites a click(container) [wait <=1s] click(option)
// sequence into a single select action with mode=custom (spec.md §4.4
// pass 3).
func DetectCustomSelect(actions []scenario.Action) []scenario.Action {
	out := make([]scenario.Action, 0, len(actions))
	i := 0
	for i < len(actions) {
		a := actions[i]
		if a.Kind != scenario.ActionClick || a.Selector == nil || !matchesAny(a.Selector.ElementInfo, containerKeywords) {
			out = append(out, a)
			i++
			continue
		}

		j := i + 1
		var waitAction *scenario.Action
		if j < len(actions) && actions[j].Kind == scenario.ActionWait {
			wd, err := actions[j].Wait()
			if err == nil && wd.Mode == scenario.WaitDuration && wd.Ms <= customSelectMaxGapMs {
				waitAction = &actions[j]
				j++
			}
		}

		if j < len(actions) && actions[j].Kind == scenario.ActionClick && actions[j].Selector != nil && matchesAny(actions[j].Selector.ElementInfo, optionKeywords) {
			option := actions[j]
			steps := []scenario.Action{a}
			if waitAction != nil {
				steps = append(steps, *waitAction)
			} else {
				w := scenario.Action{Kind: scenario.ActionWait, Timestamp: a.Timestamp}
				_ = w.SetData(scenario.WaitData{Mode: scenario.WaitDuration, Ms: 300})
				steps = append(steps, w)
			}
			steps = append(steps, option)

			merged := scenario.Action{Kind: scenario.ActionSelect, Timestamp: a.Timestamp, Selector: option.Selector}
			value := ""
			if cd, err := option.Click(); err == nil {
				value = cd.Text
			}
			_ = merged.SetData(scenario.SelectData{Mode: scenario.SelectCustom, Value: value, Steps: steps})
			out = append(out, merged)
			i = j + 1
			continue
		}

		out = append(out, a)
		i++
	}
	return out
}

const duplicateClickWindowMs = 500

// RemoveDuplicateClicks drops an earlier click on the same selector when a
// later click on that selector follows within 500ms, keeping the later one
// (spec.md §4.4 pass 4).
func RemoveDuplicateClicks(actions []scenario.Action) []scenario.Action {
	drop := make([]bool, len(actions))
	for i := range actions {
		if actions[i].Kind != scenario.ActionClick {
			continue
		}
		for j := i + 1; j < len(actions); j++ {
			if actions[j].Kind != scenario.ActionClick {
				continue
			}
			if !samePrimarySelector(actions[i].Selector, actions[j].Selector) {
				continue
			}
			if actions[j].Timestamp-actions[i].Timestamp <= duplicateClickWindowMs {
				drop[i] = true
			}
			break
		}
	}
	out := make([]scenario.Action, 0, len(actions))
	for i, a := range actions {
		if drop[i] {
			continue
		}
		out = append(out, a)
	}
	return out
}

// MergeSequentialWaits sums the durations of adjacent duration-mode wait
// actions into one (spec.md §4.4 pass 5).
func MergeSequentialWaits(actions []scenario.Action) []scenario.Action {
	out := make([]scenario.Action, 0, len(actions))
	for i := 0; i < len(actions); i++ {
		a := actions[i]
		if a.Kind != scenario.ActionWait {
			out = append(out, a)
			continue
		}
		wd, err := a.Wait()
		if err != nil || wd.Mode != scenario.WaitDuration {
			out = append(out, a)
			continue
		}
		total := wd.Ms
		j := i
		for j+1 < len(actions) && actions[j+1].Kind == scenario.ActionWait {
			nextWd, err := actions[j+1].Wait()
			if err != nil || nextWd.Mode != scenario.WaitDuration {
				break
			}
			total += nextWd.Ms
			j++
		}
		merged := scenario.Action{Kind: scenario.ActionWait, Timestamp: a.Timestamp}
		_ = merged.SetData(scenario.WaitData{Mode: scenario.WaitDuration, Ms: total})
		out = append(out, merged)
		i = j
	}
	return out
}

// RemoveRedundantScrolls drops an earlier scroll when it is immediately
// followed, ignoring intervening waits, by another scroll (spec.md §4.4
// pass 6).
func RemoveRedundantScrolls(actions []scenario.Action) []scenario.Action {
	drop := make([]bool, len(actions))
	for i := range actions {
		if actions[i].Kind != scenario.ActionScroll {
			continue
		}
		j := i + 1
		for j < len(actions) && actions[j].Kind == scenario.ActionWait {
			j++
		}
		if j < len(actions) && actions[j].Kind == scenario.ActionScroll {
			drop[i] = true
		}
	}
	out := make([]scenario.Action, 0, len(actions))
	for i, a := range actions {
		if drop[i] {
			continue
		}
		out = append(out, a)
	}
	return out
}

// RemoveRedundantHovers drops a hover immediately followed by a click on
// the same selector, and a hover identical to the immediately-prior hover
// (spec.md §4.4 pass 7).
func RemoveRedundantHovers(actions []scenario.Action) []scenario.Action {
	drop := make([]bool, len(actions))
	for i := range actions {
		if actions[i].Kind != scenario.ActionHover {
			continue
		}
		if i+1 < len(actions) && actions[i+1].Kind == scenario.ActionClick && samePrimarySelector(actions[i].Selector, actions[i+1].Selector) {
			drop[i] = true
			continue
		}
		if i > 0 && actions[i-1].Kind == scenario.ActionHover && samePrimarySelector(actions[i-1].Selector, actions[i].Selector) && !drop[i-1] {
			drop[i] = true
		}
	}
	out := make([]scenario.Action, 0, len(actions))
	for i, a := range actions {
		if drop[i] {
			continue
		}
		out = append(out, a)
	}
	return out
}
