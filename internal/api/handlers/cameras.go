package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/your-org/sentinel/internal/capture"
	"github.com/your-org/sentinel/internal/models"
	"github.com/your-org/sentinel/internal/storage"
	"github.com/your-org/sentinel/pkg/dto"
)

type CameraHandler struct {
	db         *storage.PostgresStore
	minio      *storage.MinIOStore
	supervisor *capture.Supervisor
}

func NewCameraHandler(db *storage.PostgresStore, minio *storage.MinIOStore, supervisor *capture.Supervisor) *CameraHandler {
	return &CameraHandler{db: db, minio: minio, supervisor: supervisor}
}

func (h *CameraHandler) Create(c *gin.Context) {
	var req dto.CreateCameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := h.db.GetCamera(c.Request.Context(), req.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "camera id already exists"})
		return
	}

	cam := &models.Camera{
		ID:            req.ID,
		Name:          req.Name,
		URL:           req.URL,
		Area:          models.Region{X1: req.Area[0], Y1: req.Area[1], X2: req.Area[2], Y2: req.Area[3]},
		ReceiverEmail: req.ReceiverEmail,
	}

	if err := h.db.CreateCamera(c.Request.Context(), cam); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, h.cameraToResponse(cam))
}

func (h *CameraHandler) Get(c *gin.Context) {
	cam, err := h.db.GetCamera(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if cam == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "camera not found"})
		return
	}

	c.JSON(http.StatusOK, h.cameraToResponse(cam))
}

func (h *CameraHandler) List(c *gin.Context) {
	cameras, err := h.db.ListCameras(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := lo.Map(cameras, func(cam models.Camera, _ int) dto.CameraResponse {
		return h.cameraToResponse(&cam)
	})

	c.JSON(http.StatusOK, dto.CameraListResponse{Cameras: resp, Total: len(resp)})
}

// Start begins capture on a registered camera. Idempotent: starting an
// already-running camera returns the current session state unchanged.
func (h *CameraHandler) Start(c *gin.Context) {
	id := c.Param("id")

	cam, err := h.db.GetCamera(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if cam == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "camera not found"})
		return
	}

	_, created := h.supervisor.Start(cam)
	if !created {
		slog.Debug("start on running camera ignored", "camera_id", id)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "running",
		"active":  h.supervisor.ActiveIDs(),
		"started": created,
	})
}

// Stop terminates the camera's capture session. Idempotent.
func (h *CameraHandler) Stop(c *gin.Context) {
	id := c.Param("id")
	h.supervisor.Stop(id)

	c.JSON(http.StatusOK, gin.H{
		"status": "stopped",
		"active": h.supervisor.ActiveIDs(),
	})
}

// Active lists currently running camera ids.
func (h *CameraHandler) Active(c *gin.Context) {
	ids := h.supervisor.ActiveIDs()
	c.JSON(http.StatusOK, dto.ActiveCamerasResponse{Cameras: ids, Total: len(ids)})
}

func (h *CameraHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	// A running camera is stopped before its record goes away.
	h.supervisor.Stop(id)

	if err := h.db.DeleteCamera(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	// Snapshot cleanup is best effort; orphaned objects are harmless.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		keys, err := h.minio.ListObjects(ctx, "snapshots/"+id+"/")
		if err != nil || len(keys) == 0 {
			return
		}
		if err := h.minio.DeleteObjects(ctx, keys); err != nil {
			slog.Warn("delete camera snapshots", "camera_id", id, "error", err)
		}
	}()

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *CameraHandler) cameraToResponse(cam *models.Camera) dto.CameraResponse {
	status := string(models.CameraStatusStopped)
	if sess := h.supervisor.Get(cam.ID); sess != nil {
		status = string(sess.Status())
	}
	return dto.CameraResponse{
		ID:            cam.ID,
		Name:          cam.Name,
		URL:           cam.URL,
		Area:          [4]int{cam.Area.X1, cam.Area.Y1, cam.Area.X2, cam.Area.Y2},
		ReceiverEmail: cam.ReceiverEmail,
		Status:        status,
		CreatedAt:     cam.CreatedAt.Format(time.RFC3339),
	}
}
