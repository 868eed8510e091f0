package executor

import (
	"context"
	"time"

	"github.com/brennhill/gasoline-scenarios/internal/scenario"
)

// PageDriver is the external page-control boundary (spec.md §6): this
// package never touches a browser directly. It is the executor's
// equivalent of the selector package's DOMView.
type PageDriver interface {
	// Dispatch performs the action-specific routine against the live page
	// (click, type, select, scroll, hover, keypress, wait, upload, drag,
	// navigate, extract). extractedValue is only meaningful for
	// scenario.ActionExtract.
	Dispatch(ctx context.Context, a scenario.Action) (extractedValue string, err error)

	// ElementExists reports whether selector resolves to any node.
	ElementExists(ctx context.Context, selector string) (bool, error)

	// SmartFind invokes the external smart finder with descriptive text,
	// returning replacement selector candidates ordered best-first
	// (spec.md §4.6 "Retry and recovery").
	SmartFind(ctx context.Context, text string) (candidates []string, err error)

	// Diagnose captures the structured page context spec.md requires on
	// final action failure.
	Diagnose(ctx context.Context, selector string) (Diagnostics, error)

	CurrentURL(ctx context.Context) (string, error)
	CurrentTitle(ctx context.Context) (string, error)

	// IsAuthenticated backs the isAuthenticated guard: an auth-named key in
	// persistent storage, a cookie whose name contains auth/session/token,
	// or a visible logout control.
	IsAuthenticated(ctx context.Context) (bool, error)

	// NoAnimationsPending, NetworkIdleFor, and DOMStableFor back post-click
	// settlement (spec.md §4.6 "Post-click settlement").
	NoAnimationsPending(ctx context.Context) (bool, error)
	NetworkIdleFor(ctx context.Context, d time.Duration) (bool, error)
	DOMStableFor(ctx context.Context, d time.Duration) (bool, error)
}

// Diagnostics is the structured page context captured on a final action
// failure (spec.md §4.6 "Retry and recovery").
type Diagnostics struct {
	URL             string  `json:"url"`
	Title           string  `json:"title"`
	SelectorExists  bool    `json:"selector_exists"`
	Visible         bool    `json:"visible,omitempty"`
	Width           float64 `json:"width,omitempty"`
	Height          float64 `json:"height,omitempty"`
	Display         string  `json:"display,omitempty"`
	Visibility      string  `json:"visibility,omitempty"`
	Opacity         float64 `json:"opacity,omitempty"`
	PointerEvents   string  `json:"pointer_events,omitempty"`
	Disabled        bool    `json:"disabled,omitempty"`
	ReadOnly        bool    `json:"readonly,omitempty"`
	BoundingBoxX    float64 `json:"bounding_box_x,omitempty"`
	BoundingBoxY    float64 `json:"bounding_box_y,omitempty"`
	PageReady       bool    `json:"page_ready"`
	ModalPresent    bool    `json:"modal_present"`
	ActiveElement   string  `json:"active_element,omitempty"`
}
