package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts Go duration strings like "500ms" or "30s" in YAML.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	NATS      NATSConfig      `yaml:"nats"`
	MinIO     MinIOConfig     `yaml:"minio"`
	Capture   CaptureConfig   `yaml:"capture"`
	Detection DetectionConfig `yaml:"detection"`
	Alert     AlertConfig     `yaml:"alert"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type CaptureConfig struct {
	FPS                int      `yaml:"fps"`
	FrameWidth         int      `yaml:"frame_width"`
	ReconnectBackoff   Duration `yaml:"reconnect_backoff"`
	StopTimeout        Duration `yaml:"stop_timeout"`
	StreamPollInterval Duration `yaml:"stream_poll_interval"`
}

type DetectionConfig struct {
	ServiceURL    string   `yaml:"service_url"`
	Interval      Duration `yaml:"interval"`
	Timeout       Duration `yaml:"timeout"`
	MinConfidence float64  `yaml:"min_confidence"`
}

type AlertConfig struct {
	Cooldown       Duration `yaml:"cooldown"`
	NotifyURL      string   `yaml:"notify_url"`
	NotifyTimeout  Duration `yaml:"notify_timeout"`
	PersistTimeout Duration `yaml:"persist_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Capture.FPS == 0 {
		cfg.Capture.FPS = 20
	}
	if cfg.Capture.FrameWidth == 0 {
		cfg.Capture.FrameWidth = 640
	}
	if cfg.Capture.ReconnectBackoff == 0 {
		cfg.Capture.ReconnectBackoff = Duration(5 * time.Second)
	}
	if cfg.Capture.StopTimeout == 0 {
		cfg.Capture.StopTimeout = Duration(5 * time.Second)
	}
	if cfg.Capture.StreamPollInterval == 0 {
		cfg.Capture.StreamPollInterval = Duration(50 * time.Millisecond)
	}
	if cfg.Detection.Interval == 0 {
		cfg.Detection.Interval = Duration(500 * time.Millisecond)
	}
	if cfg.Detection.Timeout == 0 {
		cfg.Detection.Timeout = Duration(2 * time.Second)
	}
	if cfg.Detection.MinConfidence == 0 {
		cfg.Detection.MinConfidence = 0.25
	}
	if cfg.Alert.Cooldown == 0 {
		cfg.Alert.Cooldown = Duration(30 * time.Second)
	}
	if cfg.Alert.NotifyTimeout == 0 {
		cfg.Alert.NotifyTimeout = Duration(10 * time.Second)
	}
	if cfg.Alert.PersistTimeout == 0 {
		cfg.Alert.PersistTimeout = Duration(5 * time.Second)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SENTINEL_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SENTINEL_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("SENTINEL_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("SENTINEL_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("SENTINEL_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("SENTINEL_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("SENTINEL_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("SENTINEL_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("SENTINEL_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("SENTINEL_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("SENTINEL_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("SENTINEL_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("SENTINEL_DETECTION_URL"); v != "" {
		cfg.Detection.ServiceURL = v
	}
	if v := os.Getenv("SENTINEL_NOTIFY_URL"); v != "" {
		cfg.Alert.NotifyURL = v
	}
	if v := os.Getenv("SENTINEL_ALERT_COOLDOWN"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Alert.Cooldown = Duration(d)
		}
	}
	if v := os.Getenv("SENTINEL_DETECTION_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Detection.Interval = Duration(d)
		}
	}
}
