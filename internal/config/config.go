package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	ServerPort int
	CORSOrigin string

	DatabasePath string

	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenSecret string
	RefreshTokenExpiry time.Duration

	// Local staging area for multipart uploads before they are pushed to
	// object storage, plus the janitor settings that keep it from filling up.
	UploadTempDir       string
	UploadSweepSchedule string
	UploadMaxAge        time.Duration

	StaticDir string

	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string

	LogLevel string
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8000")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
	}

	accessExpiry, err := getDuration("ACCESS_TOKEN_EXPIRY", "15m")
	if err != nil {
		return nil, err
	}
	refreshExpiry, err := getDuration("REFRESH_TOKEN_EXPIRY", "240h")
	if err != nil {
		return nil, err
	}
	uploadMaxAge, err := getDuration("UPLOAD_MAX_AGE", "1h")
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:          port,
		CORSOrigin:          getEnv("CORS_ORIGIN", "http://localhost:3000"),
		DatabasePath:        getEnv("DATABASE_PATH", "./vidtube.db"),
		AccessTokenSecret:   getEnv("ACCESS_TOKEN_SECRET", "dev-access-secret"),
		AccessTokenExpiry:   accessExpiry,
		RefreshTokenSecret:  getEnv("REFRESH_TOKEN_SECRET", "dev-refresh-secret"),
		RefreshTokenExpiry:  refreshExpiry,
		UploadTempDir:       getEnv("UPLOAD_TEMP_DIR", "./public/temp"),
		UploadSweepSchedule: getEnv("UPLOAD_SWEEP_SCHEDULE", "*/10 * * * *"),
		UploadMaxAge:        uploadMaxAge,
		StaticDir:           getEnv("STATIC_DIR", "./public"),
		S3Bucket:            getEnv("S3_BUCKET", "vidtube-media"),
		S3Region:            getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:          getEnv("S3_ENDPOINT", "http://127.0.0.1:9000"),
		S3AccessKey:         getEnv("S3_ACCESS_KEY", "admin"),
		S3SecretKey:         getEnv("S3_SECRET_KEY", "secretpassword"),
		S3PublicBaseURL:     getEnv("S3_PUBLIC_BASE_URL", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key, fallback string) (time.Duration, error) {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}
