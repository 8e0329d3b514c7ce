package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/sentinel/internal/config"
	"github.com/your-org/sentinel/internal/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Cameras ---

func (s *PostgresStore) CreateCamera(ctx context.Context, cam *models.Camera) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO cameras (cam_id, name, url, area_x1, area_y1, area_x2, area_y2, receiver_email)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`,
		cam.ID, cam.Name, cam.URL, cam.Area.X1, cam.Area.Y1, cam.Area.X2, cam.Area.Y2, cam.ReceiverEmail,
	).Scan(&cam.CreatedAt)
	if err != nil {
		return fmt.Errorf("create camera: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCamera(ctx context.Context, camID string) (*models.Camera, error) {
	cam := &models.Camera{}
	err := s.pool.QueryRow(ctx,
		`SELECT cam_id, name, url, area_x1, area_y1, area_x2, area_y2, receiver_email, created_at
		 FROM cameras WHERE cam_id = $1`, camID,
	).Scan(&cam.ID, &cam.Name, &cam.URL,
		&cam.Area.X1, &cam.Area.Y1, &cam.Area.X2, &cam.Area.Y2,
		&cam.ReceiverEmail, &cam.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get camera: %w", err)
	}
	return cam, nil
}

func (s *PostgresStore) ListCameras(ctx context.Context) ([]models.Camera, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT cam_id, name, url, area_x1, area_y1, area_x2, area_y2, receiver_email, created_at
		 FROM cameras ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list cameras: %w", err)
	}
	defer rows.Close()

	var cameras []models.Camera
	for rows.Next() {
		var cam models.Camera
		if err := rows.Scan(&cam.ID, &cam.Name, &cam.URL,
			&cam.Area.X1, &cam.Area.Y1, &cam.Area.X2, &cam.Area.Y2,
			&cam.ReceiverEmail, &cam.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan camera: %w", err)
		}
		cameras = append(cameras, cam)
	}
	return cameras, nil
}

func (s *PostgresStore) DeleteCamera(ctx context.Context, camID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM cameras WHERE cam_id = $1`, camID)
	if err != nil {
		return fmt.Errorf("delete camera: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("camera not found")
	}
	return nil
}

// --- Events ---

func (s *PostgresStore) CreateEvent(ctx context.Context, ev *models.Event) error {
	ev.ID = uuid.New()
	ev.CreatedAt = time.Now()
	if ev.Kind == "" {
		ev.Kind = "person"
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO events (id, camera_id, camera_name, timestamp, kind, confidence,
		 bbox_x1, bbox_y1, bbox_x2, bbox_y2, snapshot_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		ev.ID, ev.CameraID, ev.CameraName, ev.Timestamp, ev.Kind, ev.Confidence,
		ev.BBox[0], ev.BBox[1], ev.BBox[2], ev.BBox[3], ev.SnapshotKey, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	ev := &models.Event{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, camera_id, camera_name, timestamp, kind, confidence,
		 bbox_x1, bbox_y1, bbox_x2, bbox_y2, snapshot_key, created_at
		 FROM events WHERE id = $1`, id,
	).Scan(&ev.ID, &ev.CameraID, &ev.CameraName, &ev.Timestamp, &ev.Kind, &ev.Confidence,
		&ev.BBox[0], &ev.BBox[1], &ev.BBox[2], &ev.BBox[3], &ev.SnapshotKey, &ev.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

// ListEvents returns the most recent events, optionally filtered by camera.
func (s *PostgresStore) ListEvents(ctx context.Context, cameraID string, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 500 {
		limit = 500
	}

	query := `SELECT id, camera_id, camera_name, timestamp, kind, confidence,
		 bbox_x1, bbox_y1, bbox_x2, bbox_y2, snapshot_key, created_at
		 FROM events`
	args := []interface{}{}
	if cameraID != "" {
		query += ` WHERE camera_id = $1`
		args = append(args, cameraID)
	}
	query += fmt.Sprintf(` ORDER BY timestamp DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var ev models.Event
		if err := rows.Scan(&ev.ID, &ev.CameraID, &ev.CameraName, &ev.Timestamp, &ev.Kind, &ev.Confidence,
			&ev.BBox[0], &ev.BBox[1], &ev.BBox[2], &ev.BBox[3], &ev.SnapshotKey, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}
