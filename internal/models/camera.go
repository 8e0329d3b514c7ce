package models

import "time"

type CameraStatus string

const (
	CameraStatusStopped  CameraStatus = "stopped"
	CameraStatusStarting CameraStatus = "starting"
	CameraStatusRunning  CameraStatus = "running"
	CameraStatusStopping CameraStatus = "stopping"
)

// Region is an axis-aligned detection area in pixel frame coordinates.
type Region struct {
	X1 int `json:"x1" db:"area_x1"`
	Y1 int `json:"y1" db:"area_y1"`
	X2 int `json:"x2" db:"area_x2"`
	Y2 int `json:"y2" db:"area_y2"`
}

// Contains reports whether the point (x, y) lies inside the region.
func (r Region) Contains(x, y int) bool {
	return x >= r.X1 && x <= r.X2 && y >= r.Y1 && y <= r.Y2
}

// IsZero reports whether no region was configured.
func (r Region) IsZero() bool {
	return r.X1 == 0 && r.Y1 == 0 && r.X2 == 0 && r.Y2 == 0
}

// Camera is a registered surveillance camera. Immutable while its capture
// session runs; reconfiguration requires stop and restart.
type Camera struct {
	ID            string    `json:"id" db:"cam_id"`
	Name          string    `json:"name" db:"name"`
	URL           string    `json:"url" db:"url"`
	Area          Region    `json:"area"`
	ReceiverEmail string    `json:"receiver_email" db:"receiver_email"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
