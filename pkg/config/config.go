package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Session       SessionConfig
	Engine        EngineConfig
	Storage       StorageConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	BaseURL            string
	RateLimitPerSecond int
	RateLimitBurst     int
	CORSOrigins        []string
}

// SessionConfig bounds the in-memory session registry. SweepSchedule is a
// cron spec consumed by the sweeper job.
type SessionConfig struct {
	TTL           time.Duration
	SweepSchedule string
	MaxSessions   int
}

// EngineConfig carries the resource caps handed to the engines at startup.
// Defaults mirror the engines' own Default* constants.
type EngineConfig struct {
	MaxCells         int
	PivotMaxGroups   int
	OutlierThreshold float64
	HistogramBuckets int
	MaxUploadBytes   int64
}

type StorageConfig struct {
	UploadDir string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

// Load reads configuration from environment variables, after loading a .env
// file when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 50),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 100),
			CORSOrigins:        getEnvAsSlice("CORS_ORIGINS", []string{"*"}),
		},
		Session: SessionConfig{
			TTL:           getEnvAsDuration("SESSION_TTL", 30*time.Minute),
			SweepSchedule: getEnv("SESSION_SWEEP_SCHEDULE", "*/5 * * * *"),
			MaxSessions:   getEnvAsInt("SESSION_MAX", 500),
		},
		Engine: EngineConfig{
			MaxCells:         getEnvAsInt("ENGINE_MAX_CELLS", 50000),
			PivotMaxGroups:   getEnvAsInt("ENGINE_PIVOT_MAX_GROUPS", 10000),
			OutlierThreshold: getEnvAsFloat("ENGINE_OUTLIER_THRESHOLD", 1.96),
			HistogramBuckets: getEnvAsInt("ENGINE_HISTOGRAM_BUCKETS", 10),
			MaxUploadBytes:   int64(getEnvAsInt("ENGINE_MAX_UPLOAD_BYTES", 10<<20)),
		},
		Storage: StorageConfig{
			UploadDir: getEnv("STORAGE_UPLOAD_DIR", "./data/uploads"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}

	if cfg.Session.TTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.Session.TTL)
	}
	if cfg.Engine.MaxCells <= 0 {
		return nil, fmt.Errorf("ENGINE_MAX_CELLS must be positive, got %d", cfg.Engine.MaxCells)
	}

	return cfg, nil
}

// Addr returns the host:port the server binds.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
