// Package recorder implements the in-page recorder's host-side half
// (spec.md §4.3, C3): the recording lifecycle state machine, event-to-action
// normalisation, and the deletion-candidate/secrets bookkeeping that a
// scenario carries from capture to save. Generalized from the teacher's
// RecordingManager (internal/capture/recording.go,
// internal/capture/recording_manager.go): a mutex-guarded struct holding
// one active session, lifecycle methods returning the teacher's
// `reason: detail` error idiom, and disk persistence kept in this package's
// own Snapshot rather than RecordingManager's JSON-file-per-recording.
//
// The debounce timers spec.md describes for input (500ms) and scroll
// (1000ms) live in the in-page widget (external, §6); this package receives
// already-debounced events and owns everything after that: classification,
// ancestor-walk click target resolution (done by the caller, since it
// requires a live DOM), deletion-candidate tracking, and persistence.
package recorder

import (
	"fmt"
	"sync"
	"time"

	"github.com/brennhill/gasoline-scenarios/internal/scenario"
	"github.com/brennhill/gasoline-scenarios/internal/secret"
)

// State is a recording session's lifecycle state (spec.md §4.3
// "idle → recording → paused ↔ recording → saved/cancelled").
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateSaved     State = "saved"
	StateCancelled State = "cancelled"
)

// hoverDeletionAncestors bounds the ancestor walk a click performs when
// clearing hover deletion-candidates (spec.md §4.3 "mouseover").
const hoverDeletionAncestors = 3

// Recorder holds one active (or just-finished) recording session. It is
// safe for concurrent use.
type Recorder struct {
	mu sync.Mutex

	state State

	name     string
	entryURL string
	exitURL  string

	actions []scenario.Action
	secrets map[string]string

	// deletionCandidates maps a hover action's index in actions to the
	// selector it targeted, for the "dropped unless purposeful" rule.
	deletionCandidates map[int]string

	pendingDrag *pendingDrag

	widgetPosition WidgetPosition
	widgetCompact  bool
}

// WidgetPosition is the recorder control widget's last known screen
// position, persisted across reloads (spec.md §4.3 "Persistence").
type WidgetPosition struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type pendingDrag struct {
	source    *scenario.SelectorRecord
	startedAt int64
}

// New returns an idle recorder.
func New() *Recorder {
	return &Recorder{state: StateIdle, deletionCandidates: map[int]string{}}
}

// Start transitions idle → recording. Returns an error if a recording is
// already in progress (spec.md §4.3 "Start transitions require recording
// not to be in progress").
func (r *Recorder) Start(entryURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRecording || r.state == StatePaused {
		return fmt.Errorf("recording_already_active: a recording is already in progress")
	}

	r.state = StateRecording
	r.entryURL = entryURL
	r.exitURL = ""
	r.actions = nil
	r.secrets = map[string]string{}
	r.deletionCandidates = map[int]string{}
	r.pendingDrag = nil
	return nil
}

// Pause transitions recording → paused.
func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRecording {
		return fmt.Errorf("not_recording: cannot pause, no recording in progress")
	}
	r.state = StatePaused
	return nil
}

// Resume transitions paused → recording.
func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StatePaused {
		return fmt.Errorf("not_paused: cannot resume, recording is not paused")
	}
	r.state = StateRecording
	return nil
}

// Cancel discards the in-progress recording.
func (r *Recorder) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRecording && r.state != StatePaused {
		return fmt.Errorf("not_recording: nothing to cancel")
	}
	r.state = StateCancelled
	return nil
}

// StopAndSave finalises the recording: drops any hover still in the
// deletion-candidate set, requires a non-empty name (spec.md §4.3
// "Stop-and-Save requires a non-empty scenario name"), and returns the raw
// action slice plus secrets buffer for the optimiser and storage layer to
// consume. The caller still owns running the optimiser (C4) before saving.
func (r *Recorder) StopAndSave(name, exitURL string) ([]scenario.Action, map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording && r.state != StatePaused {
		return nil, nil, fmt.Errorf("not_recording: no recording in progress")
	}
	if name == "" {
		return nil, nil, fmt.Errorf("scenario_name_required: stop-and-save requires a non-empty scenario name")
	}

	r.exitURL = exitURL
	r.dropUnclaimedHovers()

	r.state = StateSaved
	r.name = name

	actionsOut := append([]scenario.Action(nil), r.actions...)
	secretsOut := make(map[string]string, len(r.secrets))
	for k, v := range r.secrets {
		secretsOut[k] = v
	}
	return actionsOut, secretsOut, nil
}

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// EntryURL and ExitURL expose the session's boundary URLs.
func (r *Recorder) EntryURL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entryURL
}

func (r *Recorder) ExitURL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exitURL
}

func (r *Recorder) dropUnclaimedHovers() {
	if len(r.deletionCandidates) == 0 {
		return
	}
	drop := make(map[int]bool, len(r.deletionCandidates))
	for idx := range r.deletionCandidates {
		drop[idx] = true
	}
	kept := r.actions[:0:0]
	for i, a := range r.actions {
		if drop[i] {
			continue
		}
		kept = append(kept, a)
	}
	r.actions = kept
	r.deletionCandidates = map[int]string{}
}

func (r *Recorder) append(a scenario.Action) int {
	r.actions = append(r.actions, a)
	return len(r.actions) - 1
}

// classify is an injected seam so callers can pass form context gathered
// from the live page; recorder itself holds no DOM access.
var classify = secret.Classify

func nowMs() int64 { return time.Now().UnixMilli() }
