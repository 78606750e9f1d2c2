package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	NATS        NATSConfig        `yaml:"nats"`
	MinIO       MinIOConfig       `yaml:"minio"`
	Redis       RedisConfig       `yaml:"redis"`
	EventSource EventSourceConfig `yaml:"event_source"`
	Ingest      IngestConfig      `yaml:"ingest"`
	StreamProxy StreamProxyConfig `yaml:"stream_proxy"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
	Timezone    string            `yaml:"timezone"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	APIKey         string   `yaml:"api_key"`
	AllowedOrigins []string `yaml:"allowed_origins"`
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

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// EventSourceConfig selects where the dashboard snapshot is loaded from.
// Mode "store" reads Postgres directly, "http" polls URL. StatusURL receives
// status PATCHes in http mode; "{id}" is replaced by the event id.
type EventSourceConfig struct {
	Mode             string        `yaml:"mode"`
	URL              string        `yaml:"url"`
	StatusURL        string        `yaml:"status_url"`
	PollInterval     time.Duration `yaml:"poll_interval"`
	Timeout          time.Duration `yaml:"timeout"`
	BreakerFailures  uint32        `yaml:"breaker_failures"`
	BreakerOpenDelay time.Duration `yaml:"breaker_open_delay"`
}

type IngestConfig struct {
	FPS             int           `yaml:"fps"`
	FrameWidth      int           `yaml:"frame_width"`
	MaxRetries      int           `yaml:"max_retries"`
	Retention       time.Duration `yaml:"retention"`
	CleanupSchedule string        `yaml:"cleanup_schedule"`
	FFmpegPath      string        `yaml:"ffmpeg_path"`
	YtDlpPath       string        `yaml:"ytdlp_path"`
}

type StreamProxyConfig struct {
	Port      int           `yaml:"port"`
	RateLimit float64       `yaml:"rate_limit"`
	Burst     int           `yaml:"burst"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	CookieName string        `yaml:"cookie_name"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads config from YAML file and applies environment variable overrides.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && os.Getenv("CE_CONFIG_OPTIONAL") == "1":
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = "careeyes"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.EventSource.Mode == "" {
		cfg.EventSource.Mode = "store"
	}
	if cfg.EventSource.PollInterval == 0 {
		cfg.EventSource.PollInterval = 10 * time.Second
	}
	if cfg.EventSource.Timeout == 0 {
		cfg.EventSource.Timeout = 5 * time.Second
	}
	if cfg.EventSource.BreakerFailures == 0 {
		cfg.EventSource.BreakerFailures = 3
	}
	if cfg.EventSource.BreakerOpenDelay == 0 {
		cfg.EventSource.BreakerOpenDelay = 30 * time.Second
	}
	if cfg.Ingest.FPS == 0 {
		cfg.Ingest.FPS = 1
	}
	if cfg.Ingest.FrameWidth == 0 {
		cfg.Ingest.FrameWidth = 640
	}
	if cfg.Ingest.MaxRetries == 0 {
		cfg.Ingest.MaxRetries = 5
	}
	if cfg.Ingest.Retention == 0 {
		cfg.Ingest.Retention = 24 * time.Hour
	}
	if cfg.Ingest.CleanupSchedule == "" {
		cfg.Ingest.CleanupSchedule = "@every 1h"
	}
	if cfg.Ingest.FFmpegPath == "" {
		cfg.Ingest.FFmpegPath = "ffmpeg"
	}
	if cfg.Ingest.YtDlpPath == "" {
		cfg.Ingest.YtDlpPath = "yt-dlp"
	}
	if cfg.StreamProxy.Port == 0 {
		cfg.StreamProxy.Port = 5000
	}
	if cfg.StreamProxy.RateLimit == 0 {
		cfg.StreamProxy.RateLimit = 5
	}
	if cfg.StreamProxy.Burst == 0 {
		cfg.StreamProxy.Burst = 10
	}
	if cfg.StreamProxy.CacheTTL == 0 {
		cfg.StreamProxy.CacheTTL = 10 * time.Minute
	}
	if cfg.Auth.SessionTTL == 0 {
		cfg.Auth.SessionTTL = 12 * time.Hour
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "careeyes_session"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Seoul"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CE_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("CE_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("CE_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("CE_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("CE_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("CE_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("CE_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("CE_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("CE_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("CE_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("CE_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("CE_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CE_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("CE_EVENT_SOURCE_MODE"); v != "" {
		cfg.EventSource.Mode = v
	}
	if v := os.Getenv("CE_EVENT_SOURCE_URL"); v != "" {
		cfg.EventSource.URL = v
	}
	if v := os.Getenv("CE_EVENT_SOURCE_STATUS_URL"); v != "" {
		cfg.EventSource.StatusURL = v
	}
	if v := os.Getenv("CE_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.EventSource.PollInterval = d
		}
	}
	if v := os.Getenv("CE_STREAM_PROXY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.StreamProxy.Port = port
		}
	}
	if v := os.Getenv("CE_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("CE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CE_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
}
