package recorder

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/brennhill/gasoline-scenarios/internal/scenario"
)

// snapshotMaxAge is how long a persisted snapshot remains valid across page
// reloads before it is discarded on load (spec.md §4.3 "Persistence during
// recording").
const snapshotMaxAge = 24 * time.Hour

// Snapshot is the recorder's full durable state, written on every state
// change and restored on reinjection so a navigation-driven reload doesn't
// interrupt a recording (spec.md §4.3).
type Snapshot struct {
	SavedAtUnixMs int64 `json:"saved_at_unix_ms"`

	State    State                      `json:"state"`
	Name     string                     `json:"name,omitempty"`
	EntryURL string                     `json:"entry_url,omitempty"`
	ExitURL  string                     `json:"exit_url,omitempty"`
	Actions  []scenario.Action          `json:"actions"`
	Secrets  map[string]string          `json:"secrets,omitempty"`
	// DeletionCandidates maps action index to selector, mirroring the
	// in-memory set.
	DeletionCandidates map[int]string `json:"deletion_candidates,omitempty"`

	WidgetPosition WidgetPosition `json:"widget_position"`
	WidgetCompact  bool           `json:"widget_compact"`

	// Clearing is the sentinel set right after a successful save, which
	// suppresses further snapshot writes until Start is pressed again
	// (spec.md §4.3 "preventing zombie state from reappearing").
	Clearing bool `json:"clearing,omitempty"`
}

// Store persists and retrieves one Snapshot per page origin. The concrete
// per-origin key-value store lives in the browser extension (spec.md §6,
// external collaborator); this interface is what this package needs from
// it.
type Store interface {
	Load(origin string) (Snapshot, bool, error)
	Save(origin string, snap Snapshot) error
}

// Snapshot captures the recorder's current durable state.
func (r *Recorder) Snapshot(clearing bool) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	actions := append([]scenario.Action(nil), r.actions...)
	secrets := make(map[string]string, len(r.secrets))
	for k, v := range r.secrets {
		secrets[k] = v
	}
	candidates := make(map[int]string, len(r.deletionCandidates))
	for k, v := range r.deletionCandidates {
		candidates[k] = v
	}

	return Snapshot{
		SavedAtUnixMs:      nowMs(),
		State:              r.state,
		Name:               r.name,
		EntryURL:           r.entryURL,
		ExitURL:            r.exitURL,
		Actions:            actions,
		Secrets:            secrets,
		DeletionCandidates: candidates,
		WidgetPosition:     r.widgetPosition,
		WidgetCompact:      r.widgetCompact,
		Clearing:           clearing,
	}
}

// Restore replaces the recorder's state with a previously persisted
// snapshot, honoring the 24-hour expiry and the clearing sentinel (spec.md
// §4.3). A stale or clearing snapshot resets the recorder to idle instead
// of resuming it.
func (r *Recorder) Restore(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	age := time.Duration(nowMs()-snap.SavedAtUnixMs) * time.Millisecond
	if snap.Clearing || age > snapshotMaxAge {
		r.state = StateIdle
		r.actions = nil
		r.secrets = map[string]string{}
		r.deletionCandidates = map[int]string{}
		r.name, r.entryURL, r.exitURL = "", "", ""
		return
	}

	r.state = snap.State
	r.name = snap.Name
	r.entryURL = snap.EntryURL
	r.exitURL = snap.ExitURL
	r.actions = append([]scenario.Action(nil), snap.Actions...)
	r.secrets = make(map[string]string, len(snap.Secrets))
	for k, v := range snap.Secrets {
		r.secrets[k] = v
	}
	r.deletionCandidates = make(map[int]string, len(snap.DeletionCandidates))
	for k, v := range snap.DeletionCandidates {
		r.deletionCandidates[k] = v
	}
	r.widgetPosition = snap.WidgetPosition
	r.widgetCompact = snap.WidgetCompact
}

// SetWidgetState records the widget's position/compaction for persistence.
func (r *Recorder) SetWidgetState(pos WidgetPosition, compact bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.widgetPosition = pos
	r.widgetCompact = compact
}

// MarshalSnapshot and UnmarshalSnapshot are thin JSON helpers matching the
// teacher's persistRecordingToDisk idiom of marshalling with indentation
// for on-disk readability.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("snapshot_marshal_failed: %w", err)
	}
	return b, nil
}

func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot_unmarshal_failed: %w", err)
	}
	return s, nil
}
