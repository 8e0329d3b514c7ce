package handlers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/sentinel/internal/alert"
	"github.com/your-org/sentinel/internal/capture"
	"github.com/your-org/sentinel/internal/config"
	"github.com/your-org/sentinel/internal/models"
	"github.com/your-org/sentinel/internal/vision"
)

type stillSource struct {
	frame []byte
}

func (s *stillSource) Run(ctx context.Context, onFrame capture.FrameCallback) error {
	_ = onFrame(s.frame)
	<-ctx.Done()
	return ctx.Err()
}

func (s *stillSource) Stop() {}

type noopDetector struct{}

func (noopDetector) Detect(context.Context, string, string, []byte) ([]models.Detection, error) {
	return nil, nil
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(*models.Camera, models.Detection, []byte, time.Time) {}

func newStreamTestSupervisor(frame []byte) *capture.Supervisor {
	factory := func(url string, fps, width int) capture.Source {
		return &stillSource{frame: frame}
	}
	cfg := config.CaptureConfig{
		FPS:              5,
		FrameWidth:       320,
		ReconnectBackoff: config.Duration(10 * time.Millisecond),
		StopTimeout:      config.Duration(time.Second),
	}
	return capture.NewSupervisor(factory, noopDetector{}, vision.NewGate(time.Hour),
		alert.NewCooldown(time.Hour), noopDispatcher{}, nil, cfg, time.Second)
}

func newStreamTestRouter(h *StreamHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/cameras/:id/stream", h.Stream)
	return r
}

func TestStreamUnknownCameraIs404(t *testing.T) {
	sup := newStreamTestSupervisor([]byte("jpeg"))
	router := newStreamTestRouter(NewStreamHandler(sup, 10*time.Millisecond))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cameras/ghost/stream", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown camera, got %d", w.Code)
	}
}

func TestStreamServesBoundaryDelimitedFrames(t *testing.T) {
	payload := []byte("jpeg-payload")
	sup := newStreamTestSupervisor(payload)
	defer sup.StopAll()

	sess, _ := sup.Start(&models.Camera{ID: "cam-1", Name: "entrance"})
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := sess.Cache().Snapshot(); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for first frame")
		}
		time.Sleep(5 * time.Millisecond)
	}

	router := newStreamTestRouter(NewStreamHandler(sup, 10*time.Millisecond))
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/cameras/cam-1/stream")
	if err != nil {
		t.Fatalf("get stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "multipart/x-mixed-replace; boundary=frame" {
		t.Errorf("unexpected content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	readLine := func() string {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read chunk header: %v", err)
		}
		return strings.TrimRight(line, "\r\n")
	}

	if line := readLine(); line != "--frame" {
		t.Fatalf("expected boundary, got %q", line)
	}
	if line := readLine(); line != "Content-Type: image/jpeg" {
		t.Fatalf("expected content type header, got %q", line)
	}
	if line := readLine(); line != fmt.Sprintf("Content-Length: %d", len(payload)) {
		t.Fatalf("expected content length header, got %q", line)
	}
	if line := readLine(); line != "" {
		t.Fatalf("expected blank line before payload, got %q", line)
	}

	body := make([]byte, len(payload))
	if _, err := io.ReadFull(reader, body); err != nil {
		t.Fatalf("read payload: %v", err)
	}
	if string(body) != string(payload) {
		t.Errorf("payload mismatch: %q", body)
	}

	// Stopping the session ends the stream for connected viewers.
	sup.Stop("cam-1")
	drained := make(chan error, 1)
	go func() {
		_, err := io.Copy(io.Discard, reader)
		drained <- err
	}()
	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Error("stream did not terminate after session stop")
	}
}
