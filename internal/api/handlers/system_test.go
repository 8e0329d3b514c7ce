package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/your-org/sentinel/internal/models"
)

func TestHealthzReportsActiveCameras(t *testing.T) {
	sup := newStreamTestSupervisor([]byte("jpeg"))
	defer sup.StopAll()
	sup.Start(&models.Camera{ID: "cam-1", Name: "entrance"})

	h := NewSystemHandler(nil, nil, nil, sup)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", h.Healthz)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Status        string `json:"status"`
		ActiveCameras int    `json:"active_cameras"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("expected status ok, got %q", body.Status)
	}
	if body.ActiveCameras != 1 {
		t.Errorf("expected 1 active camera, got %d", body.ActiveCameras)
	}
}
