package selector

import (
	"regexp"
	"strconv"
	"strings"
)

// matchesSimpleSelector implements just enough of CSS to exercise the
// candidates this package emits, for use by fakeDOM in tests.
func (d *fakeDOM) matches(sel string, n *fakeNode) bool {
	if strings.Contains(sel, " > ") {
		parts := strings.SplitN(sel, " > ", 2)
		parentSel, rest := parts[0], parts[1]
		if n.parent == nil || !d.matches(parentSel, n.parent) {
			return false
		}
		return d.matchesScopedTag(rest, n)
	}
	return d.matchesScopedTag(sel, n)
}

var attrPattern = regexp.MustCompile(`\[([a-zA-Z-]+)="([^"]*)"\]`)
var nthPattern = regexp.MustCompile(`^(\w+):nth-of-type\((\d+)\)$`)
var nthChildPattern = regexp.MustCompile(`^(\w+):nth-child\((\d+)\)$`)

func (d *fakeDOM) matchesScopedTag(sel string, n *fakeNode) bool {
	if strings.HasPrefix(sel, "#") {
		return n.id == sel[1:]
	}
	if strings.HasPrefix(sel, "[") {
		if m := attrPattern.FindStringSubmatch(sel); m != nil {
			return attrValue(n, m[1]) == m[2]
		}
	}
	if m := nthPattern.FindStringSubmatch(sel); m != nil {
		tag := m[1]
		idx, _ := strconv.Atoi(m[2])
		return n.tag == tag && d.nthOfTypeAmongAll(n) == idx
	}
	if m := nthChildPattern.FindStringSubmatch(sel); m != nil {
		tag := m[1]
		idx, _ := strconv.Atoi(m[2])
		return n.tag == tag && d.nthChildAmong(n) == idx
	}

	// tag + zero or more .class + zero or more [attr="v"]
	rest := sel
	tag := rest
	if i := strings.IndexAny(rest, ".["); i >= 0 {
		tag = rest[:i]
		rest = rest[i:]
	} else {
		rest = ""
	}
	if tag != "" && n.tag != tag {
		return false
	}
	for _, m := range attrPattern.FindAllStringSubmatch(rest, -1) {
		if attrValue(n, m[1]) != m[2] {
			return false
		}
		rest = strings.Replace(rest, m[0], "", 1)
	}
	for _, class := range strings.Split(rest, ".") {
		if class == "" {
			continue
		}
		if !contains(n.classes, class) {
			return false
		}
	}
	return true
}

func attrValue(n *fakeNode, attr string) string {
	switch attr {
	case "data-testid":
		return n.dataTestID
	case "data-test":
		return n.dataTest
	case "name":
		return n.name
	case "role":
		return n.role
	case "aria-label":
		return n.ariaLabel
	case "placeholder":
		return n.placeholder
	}
	return ""
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func (d *fakeDOM) nthOfTypeAmongAll(n *fakeNode) int {
	idx := 0
	for _, sib := range d.nodes {
		if sib.tag == n.tag {
			idx++
		}
		if sib == n {
			return idx
		}
	}
	return 0
}

func (d *fakeDOM) nthChildAmong(n *fakeNode) int {
	idx := 0
	for _, sib := range d.nodes {
		if sib.parent != n.parent {
			continue
		}
		idx++
		if sib == n {
			return idx
		}
	}
	return 0
}
