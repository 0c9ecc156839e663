package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv         string
	Port           string
	DatabaseURL    string
	DBMaxConns     int
	DBMinConns     int
	AllowedOrigins []string

	// External design provider.
	DesignAPIKey       string
	DesignBaseURL      string
	DesignStatusURL    string
	DesignPollInterval time.Duration
	DesignPollAttempts int

	// Object storage. Backend is "minio" or "filesystem".
	StorageBackend string
	StoragePath    string
	StorageBaseURL string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	SignedURLTTL   time.Duration

	PersistWorkers int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBMaxConns:     getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns:     getEnvInt("DB_MIN_CONNS", 1),
		AllowedOrigins: splitAndTrim(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		DesignAPIKey:       os.Getenv("DESIGN_API_KEY"),
		DesignBaseURL:      getEnv("DESIGN_BASE_URL", "https://homedesigns.ai/api/v2"),
		DesignStatusURL:    os.Getenv("DESIGN_STATUS_URL"),
		DesignPollInterval: time.Second * time.Duration(getEnvInt("DESIGN_POLL_INTERVAL_SECONDS", 5)),
		DesignPollAttempts: getEnvInt("DESIGN_POLL_ATTEMPTS", 60),

		StorageBackend: getEnv("STORAGE_BACKEND", "filesystem"),
		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "digital-twin-assets"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		SignedURLTTL:   time.Hour * time.Duration(getEnvInt("SIGNED_URL_TTL_HOURS", 24)),

		PersistWorkers: getEnvInt("PERSIST_WORKERS", 4),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 360)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	cfg.StorageBaseURL = getEnv("STORAGE_BASE_URL", "http://localhost:"+cfg.Port+"/static")

	if cfg.DesignAPIKey == "" {
		return nil, fmt.Errorf("DESIGN_API_KEY is required")
	}

	if cfg.DesignStatusURL == "" {
		cfg.DesignStatusURL = strings.TrimRight(cfg.DesignBaseURL, "/") + "/requests"
	}

	if cfg.DesignPollInterval <= 0 {
		return nil, fmt.Errorf("DESIGN_POLL_INTERVAL_SECONDS must be positive")
	}
	if cfg.DesignPollAttempts <= 0 {
		return nil, fmt.Errorf("DESIGN_POLL_ATTEMPTS must be positive")
	}

	switch cfg.StorageBackend {
	case "minio":
		if cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" {
			return nil, fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for the minio backend")
		}
	case "filesystem":
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
