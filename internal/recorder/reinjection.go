package recorder

// InstanceRegistry tracks, per page, whether a live recorder instance is
// already present so reinjection is idempotent (spec.md §4.3
// "Reinjection"): if both the widget and a live instance exist, reuse them;
// if either is missing, rebuild and drop the stale reference.
type InstanceRegistry struct {
	live map[string]*Recorder
}

// NewInstanceRegistry returns an empty registry.
func NewInstanceRegistry() *InstanceRegistry {
	return &InstanceRegistry{live: map[string]*Recorder{}}
}

// Reinject returns the existing instance for pageKey when both the widget
// and a live instance are already present; otherwise it drops any stale
// reference, installs a fresh Recorder, and returns it.
func (reg *InstanceRegistry) Reinject(pageKey string, widgetPresent bool) *Recorder {
	existing, hasInstance := reg.live[pageKey]
	if widgetPresent && hasInstance {
		return existing
	}
	fresh := New()
	reg.live[pageKey] = fresh
	return fresh
}

// Drop removes a page's tracked instance, used when the host observes the
// page has navigated away or closed.
func (reg *InstanceRegistry) Drop(pageKey string) {
	delete(reg.live, pageKey)
}
