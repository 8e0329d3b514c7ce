package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesCaptured = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sentinel",
		Name:      "frames_captured_total",
		Help:      "Total number of frames captured from cameras",
	}, []string{"camera_id"})

	DetectionSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sentinel",
		Name:      "detection_submissions_total",
		Help:      "Total number of frames submitted for detection",
	}, []string{"camera_id"})

	DetectionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sentinel",
		Name:      "detection_failures_total",
		Help:      "Total number of failed detection submissions",
	}, []string{"camera_id"})

	PersonsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sentinel",
		Name:      "persons_detected_total",
		Help:      "Total number of qualifying person detections",
	}, []string{"camera_id"})

	AlertsFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sentinel",
		Name:      "alerts_fired_total",
		Help:      "Total number of alerts that passed the cooldown gate",
	}, []string{"camera_id"})

	AlertsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sentinel",
		Name:      "alerts_suppressed_total",
		Help:      "Total number of alerts suppressed by the cooldown gate",
	}, []string{"camera_id"})

	DispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sentinel",
		Name:      "dispatch_duration_seconds",
		Help:      "Duration of event dispatch stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"stage"})

	ActiveCameras = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sentinel",
		Name:      "active_cameras",
		Help:      "Number of currently running camera capture sessions",
	})

	StreamViewers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sentinel",
		Name:      "stream_viewers",
		Help:      "Number of connected MJPEG stream viewers",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sentinel",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sentinel",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
