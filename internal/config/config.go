package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	DBDriver   string
	DBDSN      string
	DBPoolSize int
	DBDebug    bool

	JWTSecret  string
	JWTTTL     time.Duration
	InviteTTL  time.Duration
	AdminEmail string
	AdminPass  string

	LogLevel slog.Level
	GelfAddr string

	StorageDriver  string
	StorageDir     string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3BucketPrefix string

	EmailAPIURL  string
	EmailAPIKey  string
	EmailFrom    string
	EmailTimeout time.Duration

	ReminderInterval time.Duration
	ReminderWindow   time.Duration

	UploadMaxBytes int64
}

// Load reads a .env file when present, then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("can't load .env", "error", err)
	}
	return &Config{
		HTTPAddr:  getEnv("SYMPOS_ADDR", ":8080"),
		PublicURL: strings.TrimRight(getEnv("SYMPOS_PUBLIC_URL", "http://localhost:8080"), "/"),

		DBDriver:   getEnv("SYMPOS_DB_DRIVER", "sqlite"),
		DBDSN:      getEnv("SYMPOS_DB_DSN", "file:sympos.db?cache=shared&mode=rwc"),
		DBPoolSize: getEnvInt("SYMPOS_DB_POOL_SIZE", 8),
		DBDebug:    getEnvBool("SYMPOS_DB_DEBUG", false),

		JWTSecret:  getEnv("SYMPOS_JWT_SECRET", "sympos-dev-secret-change-me"),
		JWTTTL:     getEnvDuration("SYMPOS_JWT_TTL", 24*time.Hour),
		InviteTTL:  getEnvDuration("SYMPOS_INVITE_TTL", 7*24*time.Hour),
		AdminEmail: getEnv("SYMPOS_ADMIN_EMAIL", "admin@sympos.local"),
		AdminPass:  getEnv("SYMPOS_ADMIN_PASS", "admin123"),

		LogLevel: getEnvLevel("SYMPOS_LOG_LEVEL", slog.LevelInfo),
		GelfAddr: getEnv("SYMPOS_GELF_ADDR", ""),

		StorageDriver:  getEnv("SYMPOS_STORAGE_DRIVER", "local"),
		StorageDir:     getEnv("SYMPOS_STORAGE_DIR", "./data/blobs"),
		S3Region:       getEnv("SYMPOS_S3_REGION", "eu-north-1"),
		S3Endpoint:     getEnv("SYMPOS_S3_ENDPOINT", ""),
		S3AccessKey:    getEnv("SYMPOS_S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("SYMPOS_S3_SECRET_KEY", ""),
		S3BucketPrefix: getEnv("SYMPOS_S3_BUCKET_PREFIX", "sympos-"),

		EmailAPIURL:  strings.TrimRight(getEnv("SYMPOS_EMAIL_API_URL", "http://localhost:3001"), "/"),
		EmailAPIKey:  getEnv("SYMPOS_EMAIL_API_KEY", ""),
		EmailFrom:    getEnv("SYMPOS_EMAIL_FROM", "no-reply@sympos.local"),
		EmailTimeout: getEnvDuration("SYMPOS_EMAIL_TIMEOUT", 15*time.Second),

		ReminderInterval: getEnvDuration("SYMPOS_REMINDER_INTERVAL", 15*time.Minute),
		ReminderWindow:   getEnvDuration("SYMPOS_REMINDER_WINDOW", 24*time.Hour),

		UploadMaxBytes: int64(getEnvInt("SYMPOS_UPLOAD_MAX_MB", 12)) << 20,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		slog.Warn("invalid integer, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		slog.Warn("invalid log level, using default", "key", key, "value", v)
		return fallback
	}
	return lvl
}
