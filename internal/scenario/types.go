// Package scenario defines the canonical data shapes for recorded browser
// scenarios: selector records, the closed set of replayable action
// variants, and the scenario/dependency/secrets model that storage and the
// executor share. Types here are plain data — a selector record computed
// once from a live DOM carries no back-reference to any node (spec.md
// "Selector-as-value").
package scenario

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// ElementInfo is a snapshot of a DOM node's stable descriptors, captured at
// synthesis time even when unused by Primary — the executor's recovery path
// (smart-find) depends on it when a selector no longer resolves.
type ElementInfo struct {
	Tag         string   `json:"tag,omitempty"`
	ID          string   `json:"id,omitempty"`
	Classes     []string `json:"classes,omitempty"`
	Name        string   `json:"name,omitempty"`
	Type        string   `json:"input_type,omitempty"`
	Role        string   `json:"role,omitempty"`
	AriaLabel   string   `json:"aria_label,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	DataTest    string   `json:"data_test,omitempty"`
	DataTestID  string   `json:"data_testid,omitempty"`
	NthOfType   int      `json:"nth_of_type,omitempty"`
	NthChild    int      `json:"nth_child,omitempty"`
	Text        string   `json:"text,omitempty"`
}

// SelectorRecord bundles a primary selector with ordered fallbacks and the
// element descriptors that fed synthesis (spec.md §3).
type SelectorRecord struct {
	Primary     string      `json:"primary"`
	Fallbacks   []string    `json:"fallbacks,omitempty"`
	ElementInfo ElementInfo `json:"element_info"`
}

// PromoteFallback moves the first fallback into Primary and removes it from
// the fallback list, mirroring the executor's retry-time selector promotion
// (spec.md §4.6 "Retry and recovery"). Returns false if there is no
// fallback to promote.
func (s *SelectorRecord) PromoteFallback() bool {
	if len(s.Fallbacks) == 0 {
		return false
	}
	s.Primary = s.Fallbacks[0]
	s.Fallbacks = s.Fallbacks[1:]
	return true
}

// Clone returns a deep copy, used by parameter substitution which must
// never mutate the stored scenario's selectors.
func (s *SelectorRecord) Clone() *SelectorRecord {
	if s == nil {
		return nil
	}
	clone := *s
	if s.Fallbacks != nil {
		clone.Fallbacks = append([]string(nil), s.Fallbacks...)
	}
	if s.ElementInfo.Classes != nil {
		clone.ElementInfo.Classes = append([]string(nil), s.ElementInfo.Classes...)
	}
	return &clone
}

// ActionKind enumerates the closed set of replayable action variants
// (spec.md §3). Kept as a string type so the wire format stays a plain
// "type" field.
type ActionKind string

const (
	ActionClick    ActionKind = "click"
	ActionType     ActionKind = "type"
	ActionSelect   ActionKind = "select"
	ActionScroll   ActionKind = "scroll"
	ActionHover    ActionKind = "hover"
	ActionKeypress ActionKind = "keypress"
	ActionWait     ActionKind = "wait"
	ActionUpload   ActionKind = "upload"
	ActionDrag     ActionKind = "drag"
	ActionNavigate ActionKind = "navigate"
	ActionExtract  ActionKind = "extract"
)

// Action is a single replayable step. Data holds the kind-specific payload
// as opaque JSON; call the typed accessor matching Kind to decode it. This
// keeps the optimiser passes pattern-matchable on Kind and the executor
// dispatch table exhaustive without inheritance (spec.md §9 "Action
// variants").
type Action struct {
	Kind      ActionKind      `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Selector  *SelectorRecord `json:"selector,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	extra     map[string]json.RawMessage
}

// UnmarshalJSON preserves any top-level field this repo's Action struct
// doesn't know about, so a scenario document written by a newer version
// round-trips unchanged (spec.md §8 boundary behavior).
func (a *Action) UnmarshalJSON(data []byte) error {
	type alias Action
	var shadow alias
	if err := json.Unmarshal(data, &shadow); err != nil {
		return err
	}
	*a = Action(shadow)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	known := map[string]bool{"type": true, "timestamp": true, "selector": true, "data": true}
	for k, v := range raw {
		if known[k] {
			continue
		}
		if a.extra == nil {
			a.extra = map[string]json.RawMessage{}
		}
		a.extra[k] = v
	}
	return nil
}

// MarshalJSON re-emits any preserved unknown fields alongside the known ones.
func (a Action) MarshalJSON() ([]byte, error) {
	out := map[string]json.RawMessage{}
	for k, v := range a.extra {
		out[k] = v
	}
	out["type"] = mustMarshal(a.Kind)
	out["timestamp"] = mustMarshal(a.Timestamp)
	if a.Selector != nil {
		out["selector"] = mustMarshal(a.Selector)
	}
	if len(a.Data) > 0 {
		out["data"] = a.Data
	}
	return json.Marshal(out)
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		// Only called with types constructed by this package; failure here
		// would mean a programmer error, not a runtime condition to recover from.
		panic(fmt.Sprintf("scenario: marshal invariant violated: %v", err))
	}
	return b
}

// SetData encodes a kind-specific payload into Data.
func (a *Action) SetData(payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("action_data_marshal_failed: %w", err)
	}
	a.Data = b
	return nil
}

// ClickData is the payload for ActionClick.
type ClickData struct {
	Text         string `json:"text,omitempty"`
	Href         string `json:"href,omitempty"`
	RequiresWait bool   `json:"requires_wait,omitempty"`
}

// TypeData is the payload for ActionType.
type TypeData struct {
	Text       string `json:"text"`
	IsSecret   bool   `json:"is_secret,omitempty"`
	ParamName  string `json:"param_name,omitempty"`
	ClearFirst bool   `json:"clear_first,omitempty"`
}

// SelectMode distinguishes native <select> playback from a synthesized
// custom-dropdown click sequence.
type SelectMode string

const (
	SelectNative SelectMode = "native"
	SelectCustom SelectMode = "custom"
)

// SelectData is the payload for ActionSelect.
type SelectData struct {
	Mode  SelectMode `json:"mode"`
	Value string     `json:"value,omitempty"`
	Steps []Action   `json:"steps,omitempty"`
}

// ScrollData is the payload for ActionScroll.
type ScrollData struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// KeypressData is the payload for ActionKeypress.
type KeypressData struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers,omitempty"`
}

// WaitMode distinguishes a fixed-duration wait from a selector-appearance wait.
type WaitMode string

const (
	WaitDuration WaitMode = "duration"
	WaitSelector WaitMode = "selector"
)

// WaitData is the payload for ActionWait.
type WaitData struct {
	Mode      WaitMode `json:"mode"`
	Ms        int64    `json:"ms,omitempty"`
	TimeoutMs int64    `json:"timeout_ms,omitempty"`
}

// UploadData is the payload for ActionUpload.
type UploadData struct {
	FilePath string `json:"file_path"`
}

// DragEndpoint is either a selector or raw coordinates.
type DragEndpoint struct {
	Selector *SelectorRecord `json:"selector,omitempty"`
	X        int             `json:"x,omitempty"`
	Y        int             `json:"y,omitempty"`
}

// DragData is the payload for ActionDrag.
type DragData struct {
	Source DragEndpoint `json:"source"`
	Target DragEndpoint `json:"target"`
}

// NavigateData is the payload for ActionNavigate.
type NavigateData struct {
	URL           string `json:"url"`
	WaitCondition string `json:"wait_condition,omitempty"`
}

// ExtractData is the payload for ActionExtract. Attribute is nil for text
// content extraction.
type ExtractData struct {
	Attribute  *string `json:"attribute,omitempty"`
	Multiple   bool    `json:"multiple,omitempty"`
	OutputName string  `json:"output_name"`
}

// Parameter describes one scenario parameter (spec.md §3 metadata.parameters).
type Parameter struct {
	Type        string  `json:"type"`
	Required    bool    `json:"required"`
	Default     *string `json:"default,omitempty"`
	Description string  `json:"description,omitempty"`
}

// GuardKind enumerates the dependency-condition checks of spec.md §4.6.
type GuardKind string

const (
	GuardIsAuthenticated GuardKind = "isAuthenticated"
	GuardHasData         GuardKind = "hasData"
	GuardURLMatches      GuardKind = "urlMatches"
	GuardElementExists   GuardKind = "elementExists"
	GuardVariableExists  GuardKind = "variableExists"
	GuardCustom          GuardKind = "custom"
)

// Guard is a condition attached to a dependency edge. Arg carries the
// single string argument each guard kind takes (key/pattern/selector/
// name/expression); isAuthenticated ignores it.
type Guard struct {
	Kind   GuardKind `json:"kind"`
	Arg    string    `json:"arg,omitempty"`
	SkipIf bool      `json:"skip_if"`
}

// ParamMapping maps a dependent scenario's parameter to a producer output,
// with an optional named transform applied to the value.
type ParamMapping struct {
	Output    string `json:"output"`
	Transform string `json:"transform,omitempty"`
}

// DependencyEdge is one entry of metadata.dependencies (spec.md §3).
type DependencyEdge struct {
	Scenario   string                  `json:"scenario"`
	Optional   bool                    `json:"optional,omitempty"`
	Parameters map[string]ParamMapping `json:"parameters,omitempty"`
	Condition  *Guard                  `json:"condition,omitempty"`
}

// Metadata is the free-form descriptive half of a scenario (spec.md §3).
type Metadata struct {
	Description  string                 `json:"description,omitempty"`
	Tags         []string               `json:"tags,omitempty"`
	EntryURL     string                 `json:"entry_url,omitempty"`
	ExitURL      string                 `json:"exit_url,omitempty"`
	Parameters   map[string]Parameter   `json:"parameters,omitempty"`
	Outputs      []string               `json:"outputs,omitempty"`
	Dependencies []DependencyEdge       `json:"dependencies,omitempty"`
	extra        map[string]json.RawMessage
}

// Scenario is the top-level persisted document (spec.md §3, §6).
type Scenario struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"-"`
	Metadata  Metadata  `json:"metadata"`
	Chain     []Action  `json:"chain"`
	extra     map[string]json.RawMessage
}

var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_]*)\}\}`)

// Placeholders returns the set of distinct {{name}} placeholders referenced
// anywhere in the chain's string fields.
func (s *Scenario) Placeholders() map[string]bool {
	found := map[string]bool{}
	for i := range s.Chain {
		collectPlaceholders(s.Chain[i].Data, found)
	}
	return found
}

func collectPlaceholders(data json.RawMessage, into map[string]bool) {
	if len(data) == 0 {
		return
	}
	for _, m := range placeholderPattern.FindAllSubmatch(data, -1) {
		into[string(m[1])] = true
	}
}

// Validate enforces spec.md §3 invariants 1 and 2: the chain must contain
// no secret literal values (checked by callers who have the secrets
// record; here we only check structural well-formedness) and every
// placeholder must be declared as a parameter or produced by a dependency.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario_invalid: name is required")
	}
	if len(s.Chain) == 0 {
		return fmt.Errorf("scenario_invalid: chain must not be empty")
	}

	available := map[string]bool{}
	for name := range s.Metadata.Parameters {
		available[name] = true
	}
	for _, dep := range s.Metadata.Dependencies {
		for depParam := range dep.Parameters {
			_ = depParam // dependent-side name, not a placeholder producer
		}
	}
	// Dependency outputs are declared by the target scenario, which this
	// package doesn't have access to in isolation; storage.Validate
	// performs the full closure check across the index. Here we only
	// reject placeholders that are neither a declared parameter nor
	// plausibly produced upstream when the scenario has no dependencies
	// at all, since that case is unambiguous.
	if len(s.Metadata.Dependencies) == 0 {
		for name := range s.Placeholders() {
			if !available[name] {
				return fmt.Errorf("scenario_invalid: placeholder {{%s}} is not declared in metadata.parameters and no dependency can supply it", name)
			}
		}
	}
	return nil
}
