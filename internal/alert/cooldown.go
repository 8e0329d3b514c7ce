package alert

import (
	"sync"
	"time"
)

// Cooldown suppresses repeated alerts per camera within a configured window.
// It also tracks a per-camera "currently alerting" flag for the continuous
// alarm signal, which follows presence in the detection area and is
// deliberately independent of the once-per-window fire gate.
type Cooldown struct {
	mu        sync.Mutex
	window    time.Duration
	lastFired map[string]time.Time
	alerting  map[string]bool
}

func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window:    window,
		lastFired: make(map[string]time.Time),
		alerting:  make(map[string]bool),
	}
}

// TryFire reports whether an alert is allowed for this camera and, if so,
// atomically records now as the window start. At most one caller per
// overlapping window receives true.
func (c *Cooldown) TryFire(cameraID string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok := c.lastFired[cameraID]
	if ok && now.Sub(last) <= c.window {
		return false
	}
	c.lastFired[cameraID] = now
	return true
}

// SetAlerting updates the continuous-alarm flag and reports whether the
// value changed, so callers emit a signal only on transitions.
func (c *Cooldown) SetAlerting(cameraID string, active bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.alerting[cameraID] == active {
		return false
	}
	c.alerting[cameraID] = active
	return true
}

// IsAlerting reports the continuous-alarm flag for the camera.
func (c *Cooldown) IsAlerting(cameraID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alerting[cameraID]
}

// Forget drops all state for a camera. Called when its session stops.
func (c *Cooldown) Forget(cameraID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lastFired, cameraID)
	delete(c.alerting, cameraID)
}
