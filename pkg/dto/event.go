package dto

import "github.com/google/uuid"

type EventResponse struct {
	ID          uuid.UUID `json:"id"`
	CameraID    string    `json:"camera_id"`
	CameraName  string    `json:"camera_name"`
	Timestamp   string    `json:"timestamp"`
	Kind        string    `json:"kind"`
	Confidence  float64   `json:"confidence"`
	BBox        [4]int    `json:"bbox"`
	SnapshotURL string    `json:"snapshot_url,omitempty"`
	CreatedAt   string    `json:"created_at"`
}

type EventListResponse struct {
	Events []EventResponse `json:"events"`
	Total  int             `json:"total"`
}

// WSEvent is a WebSocket message for real-time delivery.
type WSEvent struct {
	Type     string      `json:"type"` // person_detected, alarm_started, alarm_stopped
	CameraID string      `json:"camera_id"`
	Data     interface{} `json:"data,omitempty"`
}
