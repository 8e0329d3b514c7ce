package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/sentinel/internal/alert"
	"github.com/your-org/sentinel/internal/api"
	"github.com/your-org/sentinel/internal/api/ws"
	"github.com/your-org/sentinel/internal/capture"
	"github.com/your-org/sentinel/internal/config"
	"github.com/your-org/sentinel/internal/models"
	"github.com/your-org/sentinel/internal/notify"
	"github.com/your-org/sentinel/internal/observability"
	"github.com/your-org/sentinel/internal/queue"
	"github.com/your-org/sentinel/internal/storage"
	"github.com/your-org/sentinel/internal/vision"
	"github.com/your-org/sentinel/pkg/dto"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting sentinel", "port", cfg.Server.Port)

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to MinIO
	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := minioStore.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(context.Background()); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	// Detection pipeline
	detector := vision.NewClient(cfg.Detection.ServiceURL, cfg.Detection.Timeout.Std(), cfg.Detection.MinConfidence)
	gate := vision.NewGate(cfg.Detection.Interval.Std())
	cooldown := alert.NewCooldown(cfg.Alert.Cooldown.Std())
	notifier := notify.NewClient(cfg.Alert.NotifyURL, cfg.Alert.NotifyTimeout.Std())
	dispatcher := alert.NewDispatcher(minioStore, db, notifier, producer,
		cfg.Alert.PersistTimeout.Std(), cfg.Alert.NotifyTimeout.Std())

	supervisor := capture.NewSupervisor(capture.NewFFmpegSource, detector, gate,
		cooldown, dispatcher, producer, cfg.Capture, cfg.Detection.Timeout.Std())

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Broadcast persisted events to websocket clients
	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create event consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	err = consumer.ConsumeEvents(ctx, "sentinel-ws", func(ctx context.Context, msg jetstream.Msg) error {
		var ev models.Event
		if err := json.Unmarshal(msg.Data(), &ev); err != nil {
			return err
		}
		hub.BroadcastEvent(&dto.WSEvent{
			Type:     "person_detected",
			CameraID: ev.CameraID,
			Data:     ev,
		})
		return nil
	})
	if err != nil {
		slog.Warn("start event consumer", "error", err)
	}

	// Broadcast continuous-alarm transitions
	alarmSub, err := consumer.SubscribeAlarms(func(data []byte) {
		var sig models.AlarmSignal
		if err := json.Unmarshal(data, &sig); err != nil {
			slog.Warn("parse alarm signal", "error", err)
			return
		}
		evtType := "alarm_stopped"
		if sig.Active {
			evtType = "alarm_started"
		}
		hub.BroadcastEvent(&dto.WSEvent{
			Type:     evtType,
			CameraID: sig.CameraID,
			Data:     sig,
		})
	})
	if err != nil {
		slog.Warn("subscribe alarms", "error", err)
	} else {
		defer alarmSub.Unsubscribe()
	}

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		APIKey:             cfg.Server.APIKey,
		DB:                 db,
		MinIO:              minioStore,
		Producer:           producer,
		Supervisor:         supervisor,
		Hub:                hub,
		StreamPollInterval: cfg.Capture.StreamPollInterval.Std(),
	})

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down sentinel...")
	cancel()

	supervisor.StopAll()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
	supervisor.Drain(drainCtx)
	drainCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("sentinel stopped")
}
