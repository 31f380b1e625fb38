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
	AppEnv           string
	Port             string
	DatabaseURL      string
	GoogleProject    string
	GoogleRegion     string
	VeoModel         string
	VeoOutputBucket  string
	VeoSampleCount   int
	VeoAspectRatio   string
	VideoCreditCost  int
	RedisAddr        string
	RedisPassword    string
	GeoIPDBPath      string
	AllowedOrigins   []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		GoogleProject:    os.Getenv("GOOGLE_CLOUD_PROJECT"),
		GoogleRegion:     getEnv("GOOGLE_CLOUD_REGION", "us-central1"),
		VeoModel:         getEnv("VEO_MODEL", "veo-2.0-generate-001"),
		VeoOutputBucket:  os.Getenv("VEO_OUTPUT_BUCKET"),
		VeoSampleCount:   getEnvInt("VEO_SAMPLE_COUNT", 1),
		VeoAspectRatio:   getEnv("VEO_ASPECT_RATIO", "16:9"),
		VideoCreditCost:  getEnvInt("VIDEO_CREDIT_COST", 10),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		AllowedOrigins:   splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.GoogleProject == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT is required")
	}

	if cfg.VeoOutputBucket == "" {
		return nil, fmt.Errorf("VEO_OUTPUT_BUCKET is required")
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

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
