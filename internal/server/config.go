package server

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the server needs to start. It is built once
// at startup and passed down explicitly; nothing below this layer reads
// the environment.
type Config struct {
	Port int

	DatabaseURL string

	JWTSecret string
	TokenTTL  time.Duration

	// RedisAddr enables login rate limiting when set
	RedisAddr     string
	RedisPassword string
	LoginLimit    int64
	LoginWindow   time.Duration

	// Object storage for course materials, optional
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool

	CORSOrigins []string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// LoadConfigFromEnv reads configuration from environment variables.
// DATABASE_URL and JWT_SECRET are required; everything else has a
// sensible default or marks an optional feature.
func LoadConfigFromEnv() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	limit, err := strconv.ParseInt(getEnv("LOGIN_RATE_LIMIT", "10"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_RATE_LIMIT: %w", err)
	}

	cfg := &Config{
		Port:          port,
		DatabaseURL:   dbURL,
		JWTSecret:     secret,
		TokenTTL:      getEnvDuration("TOKEN_TTL", time.Hour),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		LoginLimit:    limit,
		LoginWindow:   getEnvDuration("LOGIN_RATE_WINDOW", time.Minute),
		S3Endpoint:    os.Getenv("S3_ENDPOINT"),
		S3AccessKey:   os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:   os.Getenv("S3_SECRET_KEY"),
		S3Bucket:      os.Getenv("S3_BUCKET_NAME"),
		S3UseSSL:      os.Getenv("S3_USE_SSL") == "true",
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		ReadTimeout:   getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:  getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:   getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
	}

	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
