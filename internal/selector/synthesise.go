package selector

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/brennhill/gasoline-scenarios/internal/scenario"
)

// transientStateClasses are excluded from stable-class candidates because
// they describe a node's momentary state rather than its identity
// (spec.md §4.1 priority 4).
var transientStateClasses = map[string]bool{
	"active": true, "visible": true, "hidden": true, "open": true, "closed": true,
}

var digitRun = regexp.MustCompile(`\d{4,}`)

// isStableClass reports whether a class name is a candidate for
// selector synthesis (spec.md §4.1 priority 4: "≥2 chars, does not
// contain a run of ≥4 digits, and is not in the transient-state set").
func isStableClass(class string) bool {
	if len(class) < 2 {
		return false
	}
	if digitRun.MatchString(class) {
		return false
	}
	return !transientStateClasses[class]
}

func stableClasses(classes []string) []string {
	var out []string
	for _, c := range classes {
		if isStableClass(c) {
			out = append(out, c)
		}
	}
	return out
}

// Synthesise computes a selector record for node against the live
// document. It tries candidates in the fixed priority order of spec.md
// §4.1, verifies each against doc, and returns the first verified
// candidate as Primary with the rest as Fallbacks.
func Synthesise(doc DOMView, node NodeRef) (scenario.SelectorRecord, error) {
	info := snapshotElementInfo(doc, node)

	candidates := candidateSelectors(doc, node)

	var verified []string
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if resolvesToExactlyNode(doc, candidate, node) {
			verified = append(verified, candidate)
		}
	}

	if len(verified) == 0 {
		return scenario.SelectorRecord{}, fmt.Errorf("selector_synthesis_failed: no candidate uniquely resolved to the target node")
	}

	return scenario.SelectorRecord{
		Primary:     verified[0],
		Fallbacks:   verified[1:],
		ElementInfo: info,
	}, nil
}

func resolvesToExactlyNode(doc DOMView, cssSelector string, node NodeRef) bool {
	matches, err := doc.QueryAll(cssSelector)
	if err != nil || len(matches) != 1 {
		return false
	}
	return doc.Same(matches[0], node)
}

// candidateSelectors builds the ordered candidate list, highest priority
// first, for verification. Multiple candidates may come from the same
// tier (e.g. each stable class tried independently at priority 4).
func candidateSelectors(doc DOMView, node NodeRef) []string {
	var out []string

	// 1. #id, not starting with a digit.
	if id := node.ID(); id != "" && !startsWithDigit(id) {
		out = append(out, "#"+cssEscape(id))
	}

	// 2. [data-testid="…"]
	if v := node.DataTestID(); v != "" {
		out = append(out, fmt.Sprintf(`[data-testid=%q]`, v))
	}

	// 3. [data-test="…"]
	if v := node.DataTest(); v != "" {
		out = append(out, fmt.Sprintf(`[data-test=%q]`, v))
	}

	tag := node.Tag()

	// 4. tag + single stable class, each tried independently.
	stable := stableClasses(node.Classes())
	for _, class := range stable {
		out = append(out, fmt.Sprintf("%s.%s", tag, cssEscape(class)))
	}

	// 5. tag + up to three stable classes concatenated.
	if len(stable) > 1 {
		limit := len(stable)
		if limit > 3 {
			limit = 3
		}
		var b strings.Builder
		b.WriteString(tag)
		for _, class := range stable[:limit] {
			b.WriteString(".")
			b.WriteString(cssEscape(class))
		}
		out = append(out, b.String())
	}

	// 6. tag[name="…"]
	if name := node.Name(); name != "" {
		out = append(out, fmt.Sprintf(`%s[name=%q]`, tag, name))
	}

	// 7. tag + conjunction of {role, aria-label, placeholder} present subset.
	if attrConj := attributeConjunction(tag, node); attrConj != "" {
		out = append(out, attrConj)
	}

	// 8. parent selector + child combinator.
	if parent, ok := node.Parent(); ok {
		out = append(out, parentScopedSelector(doc, parent, node, tag)...)
	}

	// 9. last resort: tag:nth-of-type(k) indexed among all nodes of that tag
	// in the document. One candidate per position; verification below picks
	// whichever index actually resolves to node.
	out = append(out, documentWideNthOfTypeCandidates(doc, tag)...)

	return out
}

func attributeConjunction(tag string, node NodeRef) string {
	var b strings.Builder
	b.WriteString(tag)
	wrote := false
	if role := node.Role(); role != "" {
		fmt.Fprintf(&b, `[role=%q]`, role)
		wrote = true
	}
	if label := node.AriaLabel(); label != "" {
		fmt.Fprintf(&b, `[aria-label=%q]`, label)
		wrote = true
	}
	if ph := node.Placeholder(); ph != "" {
		fmt.Fprintf(&b, `[placeholder=%q]`, ph)
		wrote = true
	}
	if !wrote {
		return ""
	}
	return b.String()
}

// parentScopedSelector computes the abbreviated one-level parent selector
// (parent id, or parent tag + first class, or parent tag) followed by
// `> tag:nth-of-type(k)`, falling back to `> tag:nth-child(k)` when
// same-tag siblings don't disambiguate.
func parentScopedSelector(doc DOMView, parent NodeRef, node NodeRef, tag string) []string {
	var parentSel string
	switch {
	case parent.ID() != "" && !startsWithDigit(parent.ID()):
		parentSel = "#" + cssEscape(parent.ID())
	default:
		if classes := stableClasses(parent.Classes()); len(classes) > 0 {
			parentSel = fmt.Sprintf("%s.%s", parent.Tag(), cssEscape(classes[0]))
		} else {
			parentSel = parent.Tag()
		}
	}

	nthOfType, nthChild := doc.SiblingIndex(node)
	return []string{
		fmt.Sprintf("%s > %s:nth-of-type(%d)", parentSel, tag, nthOfType),
		fmt.Sprintf("%s > %s:nth-child(%d)", parentSel, tag, nthChild),
	}
}

func documentWideNthOfTypeCandidates(doc DOMView, tag string) []string {
	all, err := doc.QueryAll(tag)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(all))
	for i := range all {
		out = append(out, fmt.Sprintf("%s:nth-of-type(%d)", tag, i+1))
	}
	return out
}

func startsWithDigit(s string) bool {
	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}

// cssEscape is a conservative escaper for CSS identifier/attribute values
// used inside synthesized selectors — it does not attempt full CSS.escape
// semantics, only quoting the characters that would otherwise break the
// selectors this package builds.
func cssEscape(s string) string {
	replacer := strings.NewReplacer(`"`, `\"`, `\`, `\\`)
	return replacer.Replace(s)
}
