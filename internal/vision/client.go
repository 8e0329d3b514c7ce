package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/your-org/sentinel/internal/models"
)

// Client submits frames to the external detection service.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	minConfidence float64
}

func NewClient(baseURL string, timeout time.Duration, minConfidence float64) *Client {
	return &Client{
		baseURL:       baseURL,
		httpClient:    &http.Client{Timeout: timeout},
		minConfidence: minConfidence,
	}
}

type detectResponse struct {
	Detected bool `json:"detected"`
	Persons  []struct {
		BBox       [4]int  `json:"bbox"`
		Confidence float64 `json:"confidence"`
	} `json:"persons"`
}

// Detect submits one JPEG frame and returns all person detections above the
// confidence floor. A transport failure or timeout is returned as an error;
// callers treat it as "no detection this cycle" and keep capturing.
func (c *Client) Detect(ctx context.Context, cameraID, cameraName string, frame []byte) ([]models.Detection, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("frame", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(frame); err != nil {
		return nil, fmt.Errorf("write frame: %w", err)
	}
	if err := mw.WriteField("camera_id", cameraID); err != nil {
		return nil, fmt.Errorf("write camera_id field: %w", err)
	}
	if err := mw.WriteField("camera_name", cameraName); err != nil {
		return nil, fmt.Errorf("write camera_name field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", &body)
	if err != nil {
		return nil, fmt.Errorf("create detect request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit frame: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("detection service returned %d", resp.StatusCode)
	}

	var dr detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("decode detection response: %w", err)
	}

	var detections []models.Detection
	for _, p := range dr.Persons {
		if p.Confidence < c.minConfidence {
			continue
		}
		detections = append(detections, models.Detection{
			BBox:       p.BBox,
			Confidence: p.Confidence,
			Class:      "person",
		})
	}
	return detections, nil
}

// Qualify returns the detections whose bounding-box center lies inside the
// camera's detection area. A zero area means the whole frame qualifies.
// Detections outside the area are still reported by Detect for overlay use,
// but never trigger alerts.
func Qualify(detections []models.Detection, area models.Region) []models.Detection {
	if area.IsZero() {
		return detections
	}
	var qualified []models.Detection
	for _, d := range detections {
		cx, cy := d.Center()
		if area.Contains(cx, cy) {
			qualified = append(qualified, d)
		}
	}
	return qualified
}

// Best returns the detection with the highest confidence.
func Best(detections []models.Detection) models.Detection {
	best := detections[0]
	for _, d := range detections[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	return best
}
