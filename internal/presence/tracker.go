package presence

import "sync"

// StuckTracker debounces stuck-status notifications: a transition into
// Stuck is surfaced at most once per continuous stuck episode. Leaving
// Stuck (by any other status) clears the episode so the next stuck spell
// is reported again.
type StuckTracker struct {
	mu      sync.Mutex
	notified map[string]bool
}

// NewStuckTracker returns an empty tracker.
func NewStuckTracker() *StuckTracker {
	return &StuckTracker{notified: make(map[string]bool)}
}

// Observe records name's current status and reports whether this call
// represents a fresh transition into Stuck that should be surfaced to
// the UI.
func (t *StuckTracker) Observe(name string, status Status) (shouldNotify bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if status != Stuck {
		delete(t.notified, name)
		return false
	}
	if t.notified[name] {
		return false
	}
	t.notified[name] = true
	return true
}
