package capture

import (
	"sync"
	"time"
)

// Frame is one encoded JPEG image from a camera. The data buffer is never
// mutated after publication, so readers may hold it without copying.
type Frame struct {
	CameraID   string
	Seq        uint64
	Data       []byte
	CapturedAt time.Time
}

// FrameCache holds the single most-recent frame for one camera. Publishing
// swaps an immutable buffer under a short critical section and never blocks
// on readers; unread frames are overwritten and lost, latest frame wins.
type FrameCache struct {
	mu       sync.RWMutex
	cameraID string
	frame    *Frame
	seq      uint64
}

func NewFrameCache(cameraID string) *FrameCache {
	return &FrameCache{cameraID: cameraID}
}

// Publish overwrites the held frame. The caller must not modify data after
// publishing.
func (c *FrameCache) Publish(data []byte) {
	c.mu.Lock()
	c.seq++
	c.frame = &Frame{
		CameraID:   c.cameraID,
		Seq:        c.seq,
		Data:       data,
		CapturedAt: time.Now(),
	}
	c.mu.Unlock()
}

// Snapshot returns the current frame without consuming it. Safe for any
// number of concurrent readers while publishes are in flight.
func (c *FrameCache) Snapshot() (*Frame, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.frame == nil {
		return nil, false
	}
	return c.frame, true
}
