package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/your-org/sentinel/internal/models"
	"github.com/your-org/sentinel/internal/observability"
)

// ArtifactStore persists snapshot artifacts and returns them by key.
type ArtifactStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// EventStore durably records alert events.
type EventStore interface {
	CreateEvent(ctx context.Context, ev *models.Event) error
}

// Notifier forwards a persisted event to the notification collaborator.
type Notifier interface {
	Notify(ctx context.Context, ev *models.Event) error
}

// EventPublisher fans a persisted event out to live subscribers.
type EventPublisher interface {
	PublishEvent(ctx context.Context, cameraID string, ev *models.Event) error
}

// Dispatcher runs the side-effect pipeline for one gate-passing detection:
// save the snapshot artifact, persist the event, then notify. Persistence
// failure aborts notification; notification failure only logs. Every step
// carries its own timeout so no collaborator can hang a camera's pipeline.
type Dispatcher struct {
	artifacts ArtifactStore
	events    EventStore
	notifier  Notifier
	publisher EventPublisher

	persistTimeout time.Duration
	notifyTimeout  time.Duration
}

func NewDispatcher(artifacts ArtifactStore, events EventStore, notifier Notifier, publisher EventPublisher,
	persistTimeout, notifyTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		artifacts:      artifacts,
		events:         events,
		notifier:       notifier,
		publisher:      publisher,
		persistTimeout: persistTimeout,
		notifyTimeout:  notifyTimeout,
	}
}

// Dispatch persists and forwards one alert. It is called on its own
// goroutine, detached from the capture loop, and never blocks frame capture.
func (d *Dispatcher) Dispatch(cam *models.Camera, det models.Detection, frame []byte, ts time.Time) {
	ev := &models.Event{
		CameraID:   cam.ID,
		CameraName: cam.Name,
		Timestamp:  ts,
		Kind:       det.Class,
		Confidence: det.Confidence,
		BBox:       det.BBox,
	}

	// 1. Snapshot artifact. A missing snapshot is tolerable; the event is not.
	key := fmt.Sprintf("snapshots/%s/%s.jpg", cam.ID, ts.UTC().Format("20060102_150405.000"))
	start := time.Now()
	sctx, cancel := context.WithTimeout(context.Background(), d.persistTimeout)
	err := d.artifacts.PutObject(sctx, key, frame, "image/jpeg")
	cancel()
	observability.DispatchDuration.WithLabelValues("snapshot").Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Warn("save snapshot", "camera_id", cam.ID, "error", err)
	} else {
		ev.SnapshotKey = key
	}

	// 2. Persist the event. On failure there is nothing worth notifying about.
	start = time.Now()
	pctx, cancel := context.WithTimeout(context.Background(), d.persistTimeout)
	err = d.events.CreateEvent(pctx, ev)
	cancel()
	observability.DispatchDuration.WithLabelValues("persist").Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Error("persist event", "camera_id", cam.ID, "error", err)
		return
	}

	slog.Info("alert event persisted",
		"camera_id", cam.ID,
		"camera_name", cam.Name,
		"confidence", det.Confidence,
		"snapshot_key", ev.SnapshotKey,
	)

	// Fan out to live subscribers. Best effort, never gates notification.
	if d.publisher != nil {
		bctx, cancel := context.WithTimeout(context.Background(), d.persistTimeout)
		if err := d.publisher.PublishEvent(bctx, cam.ID, ev); err != nil {
			slog.Warn("publish event", "camera_id", cam.ID, "error", err)
		}
		cancel()
	}

	// 3. Notify. Failure here never invalidates the persisted event.
	start = time.Now()
	nctx, cancel := context.WithTimeout(context.Background(), d.notifyTimeout)
	err = d.notifier.Notify(nctx, ev)
	cancel()
	observability.DispatchDuration.WithLabelValues("notify").Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Warn("notify event", "camera_id", cam.ID, "event_id", ev.ID, "error", err)
	}
}
