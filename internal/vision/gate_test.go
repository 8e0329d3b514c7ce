package vision

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGateFirstSubmissionPasses(t *testing.T) {
	g := NewGate(500 * time.Millisecond)
	if !g.ShouldSubmit("cam-1", time.Now()) {
		t.Fatal("first submission must pass")
	}
}

func TestGateThrottlesWithinInterval(t *testing.T) {
	g := NewGate(500 * time.Millisecond)
	base := time.Now()

	if !g.ShouldSubmit("cam-1", base) {
		t.Fatal("first submission must pass")
	}
	if g.ShouldSubmit("cam-1", base.Add(100*time.Millisecond)) {
		t.Error("submission within interval must be rejected")
	}
	if g.ShouldSubmit("cam-1", base.Add(500*time.Millisecond)) {
		t.Error("submission at exactly the interval must be rejected")
	}
	if !g.ShouldSubmit("cam-1", base.Add(501*time.Millisecond)) {
		t.Error("submission past the interval must pass")
	}
}

func TestGateRejectionDoesNotResetWindow(t *testing.T) {
	g := NewGate(500 * time.Millisecond)
	base := time.Now()

	g.ShouldSubmit("cam-1", base)
	for ms := 50; ms <= 450; ms += 50 {
		g.ShouldSubmit("cam-1", base.Add(time.Duration(ms)*time.Millisecond))
	}
	// The window anchors at the accepted submission, not the rejected ones.
	if !g.ShouldSubmit("cam-1", base.Add(600*time.Millisecond)) {
		t.Error("rejected submissions must not extend the window")
	}
}

func TestGateCamerasIndependent(t *testing.T) {
	g := NewGate(500 * time.Millisecond)
	now := time.Now()

	if !g.ShouldSubmit("cam-1", now) {
		t.Fatal("cam-1 first submission must pass")
	}
	if !g.ShouldSubmit("cam-2", now) {
		t.Error("cam-2 must not be throttled by cam-1")
	}
}

func TestGateForget(t *testing.T) {
	g := NewGate(time.Hour)
	now := time.Now()

	g.ShouldSubmit("cam-1", now)
	g.Forget("cam-1")
	if !g.ShouldSubmit("cam-1", now) {
		t.Error("forgotten camera must submit immediately")
	}
}

// TestGateConcurrentBurst fires many goroutines at the same instant. Exactly
// one may pass: the decision and the timestamp record are one atomic step.
func TestGateConcurrentBurst(t *testing.T) {
	g := NewGate(time.Hour)
	now := time.Now()

	var passed int64
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.ShouldSubmit("cam-1", now) {
				atomic.AddInt64(&passed, 1)
			}
		}()
	}
	wg.Wait()

	if passed != 1 {
		t.Errorf("expected exactly one submission to pass, got %d", passed)
	}
}
