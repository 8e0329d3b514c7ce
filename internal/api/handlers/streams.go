package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/sentinel/internal/capture"
	"github.com/your-org/sentinel/internal/observability"
)

// StreamHandler re-streams each camera's frame cache to any number of MJPEG
// viewers. Viewers poll on a fixed cadence independent of the camera frame
// rate; duplicate frames are expected when the camera is slower.
type StreamHandler struct {
	supervisor   *capture.Supervisor
	pollInterval time.Duration
}

func NewStreamHandler(supervisor *capture.Supervisor, pollInterval time.Duration) *StreamHandler {
	return &StreamHandler{supervisor: supervisor, pollInterval: pollInterval}
}

// Stream serves multipart/x-mixed-replace JPEG frames for one camera until
// the viewer disconnects or the capture session stops.
func (h *StreamHandler) Stream(c *gin.Context) {
	sess := h.supervisor.Get(c.Param("id"))
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "camera not found or not running"})
		return
	}

	c.Header("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "close")

	observability.StreamViewers.Inc()
	defer observability.StreamViewers.Dec()

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	cache := sess.Cache()
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-sess.Done():
			return
		case <-ticker.C:
		}

		frame, ok := cache.Snapshot()
		if !ok {
			continue // nothing captured yet; viewers wait, never error
		}

		if _, err := fmt.Fprintf(c.Writer,
			"--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame.Data)); err != nil {
			return
		}
		if _, err := c.Writer.Write(frame.Data); err != nil {
			return
		}
		if _, err := c.Writer.Write([]byte("\r\n")); err != nil {
			return
		}
		flusher.Flush()
	}
}
