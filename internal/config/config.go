package config

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv                string
	GRPCPort              int
	GRPCReflectionEnabled bool

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	CacheKeyPrefix string
	CacheTTL       time.Duration

	DatasetSource    string
	DataDir          string
	DataBaseURL      string
	DatasetFloorYear int
	ProbeRate        float64
	MinIO            MinIOConfig

	DBDriver       string
	BaselineDBPath string

	ReloadSchedule string
	ChartWidth     int
	ChartHeight    int
	ReadoutFade    time.Duration
	DashboardsFile string
}

// MinIOConfig addresses the object store holding the yearly datasets.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	return &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		GRPCPort:              getInt("GRPC_PORT", 50051),
		GRPCReflectionEnabled: getBool("GRPC_REFLECTION_ENABLED", false),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getInt("REDIS_DB", 0),
		CacheKeyPrefix: getEnvAllowEmpty("CACHE_KEY_PREFIX", "victim-dashboards:"),
		CacheTTL:       getDuration("CACHE_TTL", 10*time.Minute),

		DatasetSource:    getEnv("DATASET_SOURCE", "file"),
		DataDir:          getEnv("DATA_DIR", "./data/"),
		DataBaseURL:      os.Getenv("DATA_BASE_URL"),
		DatasetFloorYear: getInt("DATASET_FLOOR_YEAR", 2015),
		ProbeRate:        getFloat("PROBE_RATE", 0),
		MinIO: MinIOConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", "dashboards"),
			Prefix:    os.Getenv("MINIO_PREFIX"),
			UseSSL:    getBool("MINIO_USE_SSL", false),
		},

		DBDriver:       getEnv("DB_DRIVER", "sqlite3"),
		BaselineDBPath: os.Getenv("BASELINE_DB_PATH"),

		ReloadSchedule: getEnvAllowEmpty("RELOAD_SCHEDULE", "@daily"),
		ChartWidth:     getInt("CHART_WIDTH", 800),
		ChartHeight:    getInt("CHART_HEIGHT", 400),
		ReadoutFade:    getDuration("READOUT_FADE", 0),
		DashboardsFile: os.Getenv("DASHBOARDS_FILE"),
	}
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvAllowEmpty distinguishes an unset variable from one set to "".
func getEnvAllowEmpty(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return v
}
