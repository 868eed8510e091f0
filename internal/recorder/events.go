package recorder

import (
	"fmt"

	"github.com/brennhill/gasoline-scenarios/internal/scenario"
	"github.com/brennhill/gasoline-scenarios/internal/secret"
)

var allowedKeys = map[string]bool{
	"Enter": true, "Escape": true, "Tab": true,
	"ArrowUp": true, "ArrowDown": true, "ArrowLeft": true, "ArrowRight": true,
}

func (r *Recorder) recording() error {
	if r.state != StateRecording {
		return fmt.Errorf("not_recording: event ignored, no recording in progress")
	}
	return nil
}

// OnClick appends a click action. ancestorSelectors is the chain of up to
// hoverDeletionAncestors enclosing element selectors the caller walked
// while resolving the clickable target, used to clear any pending hover
// deletion-candidate on the clicked element or its ancestors (spec.md §4.3
// "mouseover").
func (r *Recorder) OnClick(sel *scenario.SelectorRecord, text, href string, requiresWait bool, ts int64, ancestorSelectors []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.recording(); err != nil {
		return err
	}

	a := scenario.Action{Kind: scenario.ActionClick, Timestamp: ts, Selector: sel}
	if err := a.SetData(scenario.ClickData{Text: text, Href: href, RequiresWait: requiresWait}); err != nil {
		return err
	}
	r.append(a)

	r.clearHoverDeletionCandidate(sel.Primary)
	for _, anc := range ancestorSelectors {
		r.clearHoverDeletionCandidate(anc)
	}
	return nil
}

// OnInput runs the secret classifier on a debounced input flush. If the
// value is a secret, it is stored in the per-scenario secrets buffer keyed
// by parameter name and the emitted action carries a placeholder instead of
// the literal (spec.md §4.3 "input").
func (r *Recorder) OnInput(form secret.FormContext, node secret.InputNode, sel *scenario.SelectorRecord, value string, previousValueWasEmpty bool, ts int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.recording(); err != nil {
		return err
	}

	verdict := classify(form, node)

	data := scenario.TypeData{ClearFirst: previousValueWasEmpty}
	if verdict.IsSecret {
		data.IsSecret = true
		data.ParamName = verdict.ParameterName
		data.Text = "{{" + verdict.ParameterName + "}}"
		r.secrets[verdict.ParameterName] = value
	} else {
		data.Text = value
	}

	a := scenario.Action{Kind: scenario.ActionType, Timestamp: ts, Selector: sel}
	if err := a.SetData(data); err != nil {
		return err
	}
	r.append(a)
	return nil
}

// OnSelectNative emits a select action for a native <select> change.
func (r *Recorder) OnSelectNative(sel *scenario.SelectorRecord, value string, ts int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.recording(); err != nil {
		return err
	}
	a := scenario.Action{Kind: scenario.ActionSelect, Timestamp: ts, Selector: sel}
	if err := a.SetData(scenario.SelectData{Mode: scenario.SelectNative, Value: value}); err != nil {
		return err
	}
	r.append(a)
	return nil
}

// OnUpload emits an upload action, embedding the filename as a parameter
// placeholder rather than the literal path.
func (r *Recorder) OnUpload(sel *scenario.SelectorRecord, ts int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.recording(); err != nil {
		return err
	}
	a := scenario.Action{Kind: scenario.ActionUpload, Timestamp: ts, Selector: sel}
	if err := a.SetData(scenario.UploadData{FilePath: "{{filePath}}"}); err != nil {
		return err
	}
	r.append(a)
	return nil
}

// OnScroll emits a scroll action with the final debounced position.
func (r *Recorder) OnScroll(sel *scenario.SelectorRecord, x, y int, ts int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.recording(); err != nil {
		return err
	}
	a := scenario.Action{Kind: scenario.ActionScroll, Timestamp: ts, Selector: sel}
	if err := a.SetData(scenario.ScrollData{X: x, Y: y}); err != nil {
		return err
	}
	r.append(a)
	return nil
}

// OnHover records a hover and adds it to the deletion-candidate set; a
// later click on the same element or an ancestor clears the candidate
// (spec.md §4.3 "mouseover"). The caller is responsible for checking a
// matching :hover CSS rule before calling this.
func (r *Recorder) OnHover(sel *scenario.SelectorRecord, ts int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.recording(); err != nil {
		return err
	}
	a := scenario.Action{Kind: scenario.ActionHover, Timestamp: ts, Selector: sel}
	if err := a.SetData(struct{}{}); err != nil {
		return err
	}
	idx := r.append(a)
	r.deletionCandidates[idx] = sel.Primary
	return nil
}

func (r *Recorder) clearHoverDeletionCandidate(selector string) {
	for idx, sel := range r.deletionCandidates {
		if sel == selector {
			delete(r.deletionCandidates, idx)
		}
	}
}

// OnKeydown records a special-key press with active modifiers. Non-special
// keys are rejected (spec.md §4.3 "keydown").
func (r *Recorder) OnKeydown(key string, modifiers []string, ts int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.recording(); err != nil {
		return err
	}
	if !allowedKeys[key] {
		return fmt.Errorf("keydown_ignored: %q is not a recorded special key", key)
	}
	a := scenario.Action{Kind: scenario.ActionKeypress, Timestamp: ts}
	if err := a.SetData(scenario.KeypressData{Key: key, Modifiers: modifiers}); err != nil {
		return err
	}
	r.append(a)
	return nil
}

// OnDragStart remembers the drag's source selector for pairing with the
// matching OnDragEnd (spec.md §4.3 "dragstart/dragend").
func (r *Recorder) OnDragStart(sel *scenario.SelectorRecord, ts int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.recording(); err != nil {
		return err
	}
	r.pendingDrag = &pendingDrag{source: sel, startedAt: ts}
	return nil
}

// OnDragEnd pairs with the most recent OnDragStart and emits a single drag
// action. Returns an error if there is no pending drag.
func (r *Recorder) OnDragEnd(target *scenario.SelectorRecord, ts int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.recording(); err != nil {
		return err
	}
	if r.pendingDrag == nil {
		return fmt.Errorf("drag_not_started: dragend received with no matching dragstart")
	}
	a := scenario.Action{Kind: scenario.ActionDrag, Timestamp: r.pendingDrag.startedAt}
	data := scenario.DragData{
		Source: scenario.DragEndpoint{Selector: r.pendingDrag.source},
		Target: scenario.DragEndpoint{Selector: target},
	}
	if err := a.SetData(data); err != nil {
		return err
	}
	r.append(a)
	r.pendingDrag = nil
	return nil
}
