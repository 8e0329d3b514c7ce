package capture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/your-org/sentinel/internal/alert"
	"github.com/your-org/sentinel/internal/config"
	"github.com/your-org/sentinel/internal/models"
	"github.com/your-org/sentinel/internal/observability"
	"github.com/your-org/sentinel/internal/vision"
)

// Detector submits one frame to the detection capability.
type Detector interface {
	Detect(ctx context.Context, cameraID, cameraName string, frame []byte) ([]models.Detection, error)
}

// Dispatching runs the persist/notify pipeline for one alert.
type Dispatching interface {
	Dispatch(cam *models.Camera, det models.Detection, frame []byte, ts time.Time)
}

// AlarmPublisher fans out continuous-alarm transitions.
type AlarmPublisher interface {
	PublishAlarm(ctx context.Context, sig models.AlarmSignal) error
}

// Session is the running capture state of one camera. Exactly one session
// exists per camera id at a time.
type Session struct {
	Camera *models.Camera

	cache  *FrameCache
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	status models.CameraStatus
	source Source
}

// Cache exposes the session's frame cache to stream subscribers.
func (s *Session) Cache() *FrameCache {
	return s.cache
}

// Done is closed when the capture loop has exited. Stream subscriptions use
// it as their cancellation signal.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Status() models.CameraStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) setStatus(st models.CameraStatus) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

func (s *Session) setSource(src Source) {
	s.mu.Lock()
	s.source = src
	s.mu.Unlock()
}

func (s *Session) stopSource() {
	s.mu.Lock()
	src := s.source
	s.mu.Unlock()
	if src != nil {
		src.Stop()
	}
}

// Supervisor owns all capture sessions. Each camera's loop runs on its own
// goroutine; errors in one camera's pipeline never reach another's.
type Supervisor struct {
	newSource  SourceFactory
	detector   Detector
	gate       *vision.Gate
	cooldown   *alert.Cooldown
	dispatcher Dispatching
	alarms     AlarmPublisher
	cfg        config.CaptureConfig

	detectTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*Session

	// tasks tracks in-flight detection and dispatch goroutines for shutdown
	// draining only; Stop never waits on them.
	tasks sync.WaitGroup
}

func NewSupervisor(newSource SourceFactory, detector Detector, gate *vision.Gate,
	cooldown *alert.Cooldown, dispatcher Dispatching, alarms AlarmPublisher,
	cfg config.CaptureConfig, detectTimeout time.Duration) *Supervisor {
	return &Supervisor{
		newSource:     newSource,
		detector:      detector,
		gate:          gate,
		cooldown:      cooldown,
		dispatcher:    dispatcher,
		alarms:        alarms,
		cfg:           cfg,
		detectTimeout: detectTimeout,
		sessions:      make(map[string]*Session),
	}
}

// Start begins capturing from the camera. Idempotent: a second start on the
// same camera id returns the existing session unchanged.
func (v *Supervisor) Start(cam *models.Camera) (*Session, bool) {
	v.mu.Lock()
	if existing, ok := v.sessions[cam.ID]; ok {
		v.mu.Unlock()
		return existing, false
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := &Session{
		Camera: cam,
		cache:  NewFrameCache(cam.ID),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		status: models.CameraStatusStarting,
	}
	v.sessions[cam.ID] = sess
	v.mu.Unlock()

	observability.ActiveCameras.Inc()
	slog.Info("starting capture session", "camera_id", cam.ID, "camera_name", cam.Name)

	go v.runCapture(sess)

	return sess, true
}

// Get returns the running session for the camera, or nil.
func (v *Supervisor) Get(cameraID string) *Session {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sessions[cameraID]
}

// ActiveIDs returns the ids of all running cameras.
func (v *Supervisor) ActiveIDs() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	ids := make([]string, 0, len(v.sessions))
	for id := range v.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Stop signals the camera's capture loop to exit and waits up to the
// configured stop timeout for it. In-flight detection and dispatch tasks are
// left to run to completion detached. Stopping an unknown camera is a no-op.
func (v *Supervisor) Stop(cameraID string) {
	v.mu.Lock()
	sess, ok := v.sessions[cameraID]
	if ok {
		delete(v.sessions, cameraID)
	}
	v.mu.Unlock()

	if !ok {
		return
	}

	sess.setStatus(models.CameraStatusStopping)
	sess.cancel()
	sess.stopSource()

	select {
	case <-sess.done:
	case <-time.After(v.cfg.StopTimeout.Std()):
		slog.Warn("capture loop did not exit in time", "camera_id", cameraID)
	}

	if v.cooldown.SetAlerting(cameraID, false) {
		v.publishAlarm(sess.Camera, false, time.Now())
	}
	v.gate.Forget(cameraID)
	v.cooldown.Forget(cameraID)

	observability.ActiveCameras.Dec()
	slog.Info("capture session stopped", "camera_id", cameraID)
}

// StopAll stops every session. Used at shutdown.
func (v *Supervisor) StopAll() {
	for _, id := range v.ActiveIDs() {
		v.Stop(id)
	}
}

// Drain waits for in-flight detection/dispatch tasks, bounded by ctx.
func (v *Supervisor) Drain(ctx context.Context) {
	drained := make(chan struct{})
	go func() {
		v.tasks.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		slog.Warn("shutdown: in-flight dispatch tasks abandoned")
	}
}

// runCapture is the per-camera loop: connect, read frames, reconnect with a
// fixed backoff on any failure, forever, until the session is stopped.
func (v *Supervisor) runCapture(sess *Session) {
	defer close(sess.done)

	cam := sess.Camera
	for {
		if sess.ctx.Err() != nil {
			sess.setStatus(models.CameraStatusStopped)
			return
		}

		src := v.newSource(cam.URL, v.cfg.FPS, v.cfg.FrameWidth)
		sess.setSource(src)
		sess.setStatus(models.CameraStatusRunning)

		err := src.Run(sess.ctx, func(frame []byte) error {
			v.onFrame(sess, frame)
			return nil
		})

		if sess.ctx.Err() != nil {
			sess.setStatus(models.CameraStatusStopped)
			return
		}

		slog.Warn("camera stream lost, reconnecting",
			"camera_id", cam.ID,
			"backoff", v.cfg.ReconnectBackoff.String(),
			"error", err,
		)

		select {
		case <-sess.ctx.Done():
			sess.setStatus(models.CameraStatusStopped)
			return
		case <-time.After(v.cfg.ReconnectBackoff.Std()):
		}
	}
}

// onFrame publishes the frame to the cache and, when the gate allows,
// submits it for detection on a separate goroutine so a slow detection call
// never stalls capture or the stream to viewers.
func (v *Supervisor) onFrame(sess *Session, frame []byte) {
	sess.cache.Publish(frame)
	observability.FramesCaptured.WithLabelValues(sess.Camera.ID).Inc()

	now := time.Now()
	if !v.gate.ShouldSubmit(sess.Camera.ID, now) {
		return
	}

	v.tasks.Add(1)
	go v.submit(sess, frame, now)
}

// submit runs one detection cycle. Detection failures are logged and treated
// as "nothing detected"; they never escalate.
func (v *Supervisor) submit(sess *Session, frame []byte, ts time.Time) {
	defer v.tasks.Done()

	cam := sess.Camera
	observability.DetectionSubmissions.WithLabelValues(cam.ID).Inc()

	ctx, cancel := context.WithTimeout(context.Background(), v.detectTimeout)
	detections, err := v.detector.Detect(ctx, cam.ID, cam.Name, frame)
	cancel()
	if err != nil {
		observability.DetectionFailures.WithLabelValues(cam.ID).Inc()
		slog.Debug("detection submission failed", "camera_id", cam.ID, "error", err)
		return
	}

	// The session may have stopped while detection was in flight. Stop has
	// already cleared the alarm and cooldown state; opening a new alert
	// cycle now would publish an unmatched alarm transition and leave the
	// alerting flag set for a dead camera.
	if sess.ctx.Err() != nil {
		return
	}

	qualified := vision.Qualify(detections, cam.Area)
	if len(qualified) == 0 {
		// Presence ended: rearm the continuous alarm.
		if v.cooldown.SetAlerting(cam.ID, false) {
			v.publishAlarm(cam, false, ts)
		}
		return
	}

	observability.PersonsDetected.WithLabelValues(cam.ID).Add(float64(len(qualified)))

	// The continuous alarm follows presence in the area, not the cooldown.
	if v.cooldown.SetAlerting(cam.ID, true) {
		v.publishAlarm(cam, true, ts)
	}

	if !v.cooldown.TryFire(cam.ID, ts) {
		observability.AlertsSuppressed.WithLabelValues(cam.ID).Inc()
		return
	}

	observability.AlertsFired.WithLabelValues(cam.ID).Inc()
	slog.Info("person detected, dispatching alert",
		"camera_id", cam.ID,
		"camera_name", cam.Name,
		"detections", len(qualified),
	)

	best := vision.Best(qualified)
	v.tasks.Add(1)
	go func() {
		defer v.tasks.Done()
		v.dispatcher.Dispatch(cam, best, frame, ts)
	}()
}

func (v *Supervisor) publishAlarm(cam *models.Camera, active bool, ts time.Time) {
	if v.alarms == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sig := models.AlarmSignal{
		CameraID:   cam.ID,
		CameraName: cam.Name,
		Active:     active,
		Timestamp:  ts,
	}
	if err := v.alarms.PublishAlarm(ctx, sig); err != nil {
		slog.Warn("publish alarm signal", "camera_id", cam.ID, "active", active, "error", err)
	}
}
