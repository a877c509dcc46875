package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort         string
	BackendURL       string
	DatabaseURL      string
	LogLevel         string
	SessionSecret    string
	ChatPollInterval time.Duration
	BackendTimeout   time.Duration
	MaxUploadMB      int
	SecureCookies    bool
}

var AppConfig Config

// LoadConfig fills AppConfig from an optional .env file and the process environment.
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, relying on environment variables")
	}

	AppConfig = Config{
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		BackendURL:       getEnv("BACKEND_URL", "http://127.0.0.1:8000"),
		DatabaseURL:      getEnv("DATABASE_URL", "site_inspector.db"),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		SessionSecret:    getEnv("SESSION_SECRET", ""),
		ChatPollInterval: getEnvAsDuration("CHAT_POLL_INTERVAL", 5*time.Second),
		BackendTimeout:   getEnvAsDuration("BACKEND_TIMEOUT", 30*time.Second),
		MaxUploadMB:      getEnvAsInt("MAX_UPLOAD_MB", 25),
		SecureCookies:    getEnvAsBool("SECURE_COOKIES", false),
	}
}

// Validate reports the first setting that would keep the console from starting.
func (c Config) Validate() error {
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 bytes, got %d", len(c.SessionSecret))
	}
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if c.ChatPollInterval <= 0 {
		return fmt.Errorf("CHAT_POLL_INTERVAL must be positive")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// MaxUploadBytes is the multipart size cap applied to upload forms.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("5s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
