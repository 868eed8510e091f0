package selector

import "github.com/brennhill/gasoline-scenarios/internal/scenario"

// snapshotElementInfo captures node's descriptors into the value shape the
// executor's smart-find recovery path matches against when every selector
// candidate has stopped resolving (spec.md §4.6).
func snapshotElementInfo(doc DOMView, node NodeRef) scenario.ElementInfo {
	nthOfType, nthChild := doc.SiblingIndex(node)
	return scenario.ElementInfo{
		Tag:         node.Tag(),
		ID:          node.ID(),
		Classes:     append([]string(nil), node.Classes()...),
		Name:        node.Name(),
		Type:        node.InputType(),
		Role:        node.Role(),
		AriaLabel:   node.AriaLabel(),
		Placeholder: node.Placeholder(),
		DataTest:    node.DataTest(),
		DataTestID:  node.DataTestID(),
		NthOfType:   nthOfType,
		NthChild:    nthChild,
		Text:        node.TextExcerpt(),
	}
}
