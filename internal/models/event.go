package models

import (
	"time"

	"github.com/google/uuid"
)

// Detection is a single person detection returned by the detection service.
type Detection struct {
	BBox       [4]int  `json:"bbox"` // x1, y1, x2, y2
	Confidence float64 `json:"confidence"`
	Class      string  `json:"class"`
}

// Center returns the bounding box center point.
func (d Detection) Center() (int, int) {
	return (d.BBox[0] + d.BBox[2]) / 2, (d.BBox[1] + d.BBox[3]) / 2
}

// Event is a persisted alert: one per camera per cooldown window.
type Event struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CameraID    string    `json:"camera_id" db:"camera_id"`
	CameraName  string    `json:"camera_name" db:"camera_name"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
	Kind        string    `json:"kind" db:"kind"` // "person" in this system
	Confidence  float64   `json:"confidence" db:"confidence"`
	BBox        [4]int    `json:"bbox" db:"bbox"`
	SnapshotKey string    `json:"snapshot_key" db:"snapshot_key"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// AlarmSignal marks a transition of the continuous per-camera alarm,
// driven by presence in the detection area rather than the alert cooldown.
type AlarmSignal struct {
	CameraID   string    `json:"camera_id"`
	CameraName string    `json:"camera_name"`
	Active     bool      `json:"active"`
	Timestamp  time.Time `json:"timestamp"`
}
