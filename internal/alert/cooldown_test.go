package alert

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCooldownFirstFirePasses(t *testing.T) {
	c := NewCooldown(10 * time.Second)
	if !c.TryFire("cam-1", time.Now()) {
		t.Fatal("first fire must pass")
	}
}

func TestCooldownSuppressesWithinWindow(t *testing.T) {
	c := NewCooldown(10 * time.Second)
	base := time.Now()

	if !c.TryFire("cam-1", base) {
		t.Fatal("first fire must pass")
	}
	if c.TryFire("cam-1", base.Add(5*time.Second)) {
		t.Error("fire within window must be suppressed")
	}
	if c.TryFire("cam-1", base.Add(10*time.Second)) {
		t.Error("fire at exactly the window must be suppressed")
	}
	if !c.TryFire("cam-1", base.Add(10*time.Second+time.Millisecond)) {
		t.Error("fire past the window must pass")
	}
}

func TestCooldownCamerasIndependent(t *testing.T) {
	c := NewCooldown(10 * time.Second)
	now := time.Now()

	c.TryFire("cam-1", now)
	if !c.TryFire("cam-2", now) {
		t.Error("cam-2 must not be suppressed by cam-1's window")
	}
}

func TestCooldownForget(t *testing.T) {
	c := NewCooldown(time.Hour)
	now := time.Now()

	c.TryFire("cam-1", now)
	c.SetAlerting("cam-1", true)
	c.Forget("cam-1")

	if !c.TryFire("cam-1", now) {
		t.Error("forgotten camera must fire immediately")
	}
	if c.IsAlerting("cam-1") {
		t.Error("forgotten camera must not be alerting")
	}
}

func TestCooldownAlertingTransitions(t *testing.T) {
	c := NewCooldown(time.Hour)

	if c.IsAlerting("cam-1") {
		t.Fatal("camera must start not alerting")
	}
	if !c.SetAlerting("cam-1", true) {
		t.Error("false to true is a transition")
	}
	if c.SetAlerting("cam-1", true) {
		t.Error("true to true is not a transition")
	}
	if !c.IsAlerting("cam-1") {
		t.Error("camera must report as alerting")
	}
	if !c.SetAlerting("cam-1", false) {
		t.Error("true to false is a transition")
	}
	if c.SetAlerting("cam-1", false) {
		t.Error("false to false is not a transition")
	}
}

// TestCooldownConcurrentBurst simulates many detection cycles landing at
// once. At most one may fire per window.
func TestCooldownConcurrentBurst(t *testing.T) {
	c := NewCooldown(time.Hour)
	now := time.Now()

	var fired int64
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.TryFire("cam-1", now) {
				atomic.AddInt64(&fired, 1)
			}
		}()
	}
	wg.Wait()

	if fired != 1 {
		t.Errorf("expected exactly one fire, got %d", fired)
	}
}

// TestCooldownDetectionScenario replays the reference timing: detections
// every 500ms for 20s against a 10s cooldown yields exactly two alerts.
func TestCooldownDetectionScenario(t *testing.T) {
	c := NewCooldown(10 * time.Second)
	base := time.Now()

	fired := 0
	for i := 0; i < 40; i++ {
		ts := base.Add(time.Duration(i) * 500 * time.Millisecond)
		if c.TryFire("cam-1", ts) {
			fired++
		}
	}
	if fired != 2 {
		t.Errorf("expected 2 alerts over 20s with a 10s cooldown, got %d", fired)
	}
}
