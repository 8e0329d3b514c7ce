package vision

import (
	"sync"
	"time"
)

// Gate throttles detection submissions per camera. The decision and the
// recording of the accepted timestamp happen under one lock, so two
// concurrent callers can never both pass for overlapping intervals.
type Gate struct {
	mu            sync.Mutex
	interval      time.Duration
	lastSubmitted map[string]time.Time
}

func NewGate(interval time.Duration) *Gate {
	return &Gate{
		interval:      interval,
		lastSubmitted: make(map[string]time.Time),
	}
}

// ShouldSubmit reports whether enough time has elapsed since the last
// accepted submission for this camera, and records now on acceptance.
func (g *Gate) ShouldSubmit(cameraID string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	last, ok := g.lastSubmitted[cameraID]
	if ok && now.Sub(last) <= g.interval {
		return false
	}
	g.lastSubmitted[cameraID] = now
	return true
}

// Forget drops the camera's throttle state. Called when a session stops so a
// restarted camera submits immediately.
func (g *Gate) Forget(cameraID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.lastSubmitted, cameraID)
}
