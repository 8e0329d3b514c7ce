package capture

import (
	"encoding/binary"
	"sync"
	"testing"
)

func TestFrameCacheEmpty(t *testing.T) {
	cache := NewFrameCache("cam-1")
	if _, ok := cache.Snapshot(); ok {
		t.Fatal("expected no frame before first publish")
	}
}

func TestFrameCacheLatestWins(t *testing.T) {
	cache := NewFrameCache("cam-1")

	cache.Publish([]byte("first"))
	cache.Publish([]byte("second"))
	cache.Publish([]byte("third"))

	frame, ok := cache.Snapshot()
	if !ok {
		t.Fatal("expected a frame")
	}
	if string(frame.Data) != "third" {
		t.Errorf("expected latest frame, got %q", frame.Data)
	}
	if frame.Seq != 3 {
		t.Errorf("expected seq 3, got %d", frame.Seq)
	}
	if frame.CameraID != "cam-1" {
		t.Errorf("expected camera id cam-1, got %q", frame.CameraID)
	}
}

func TestFrameCacheRepeatedSnapshot(t *testing.T) {
	cache := NewFrameCache("cam-1")
	cache.Publish([]byte("frame"))

	// Snapshot does not consume: a slow viewer reads the same frame twice.
	a, _ := cache.Snapshot()
	b, _ := cache.Snapshot()
	if a.Seq != b.Seq {
		t.Errorf("snapshot consumed the frame: seq %d then %d", a.Seq, b.Seq)
	}
}

// TestFrameCacheConcurrent hammers the cache from one writer and several
// readers. Every frame observed must be internally consistent: its payload
// encodes its own sequence number, so a torn read would be detected.
func TestFrameCacheConcurrent(t *testing.T) {
	cache := NewFrameCache("cam-1")

	const frames = 5000
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := uint64(1); i <= frames; i++ {
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, i)
			cache.Publish(buf)
		}
	}()

	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var lastSeq uint64
			for {
				select {
				case <-done:
					return
				default:
				}
				frame, ok := cache.Snapshot()
				if !ok {
					continue
				}
				got := binary.BigEndian.Uint64(frame.Data)
				if got != frame.Seq {
					t.Errorf("torn frame: seq %d carries payload %d", frame.Seq, got)
					return
				}
				if frame.Seq < lastSeq {
					t.Errorf("sequence went backwards: %d after %d", frame.Seq, lastSeq)
					return
				}
				lastSeq = frame.Seq
			}
		}()
	}

	<-done
	wg.Wait()

	frame, ok := cache.Snapshot()
	if !ok || frame.Seq != frames {
		t.Fatalf("expected final seq %d, got %v", frames, frame)
	}
}
