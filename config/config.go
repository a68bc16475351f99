// Package config loads the console's configuration from the environment.
// A .env file is read first when present, so local development needs no exports.
//
// Every concern gets its own struct; the Config value is built once in main and
// handed down, nobody else calls os.Getenv.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every setting of the admin console.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Backend   BackendConfig
	Session   SessionConfig
	Cache     CacheConfig
	Redis     RedisConfig
	NATS      NATSConfig
	Email     EmailConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Upload    UploadConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

// ServerConfig is the console's HTTP listener.
type ServerConfig struct {
	Host string
	Port int
	// BasePath is where the embedded admin bundle is served (e.g. /admin).
	BasePath string
	// TrustedProxies are the IPs or CIDRs whose X-Forwarded-For is believed
	// when counting login attempts. Defaults to loopback (nginx on the host).
	TrustedProxies []string
}

// DatabaseConfig points at the SQLite file holding session slots.
type DatabaseConfig struct {
	Path string // e.g. ./data/admin.db
}

// BackendConfig describes the external blog backend.
type BackendConfig struct {
	// BaseURL is the origin of the backend. API paths carry the /api prefix
	// themselves, so this is "https://orrelng.com", not ".../api".
	BaseURL string
	Timeout time.Duration
}

// SessionConfig controls the console session slot.
type SessionConfig struct {
	// Secret is the hex-encoded AES-256 key that seals tokens at rest.
	Secret       string
	CookieName   string
	TTL          time.Duration
	CookieSecure bool
}

// CacheConfig controls the dashboard stats cache.
type CacheConfig struct {
	TTL time.Duration
}

// RedisConfig enables the shared Redis cache. Empty Addr means in-memory cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NATSConfig enables mirroring change events to NATS. Empty URL disables it.
type NATSConfig struct {
	URL     string
	Subject string
}

// EmailConfig enables applicant decision emails. Empty APIKey disables them.
type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string
	SiteName     string
}

// CORSConfig lists the origins allowed to call the console API.
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig throttles login attempts per IP.
type RateLimitConfig struct {
	LoginMaxAttempts int
	LoginWindow      time.Duration
}

// UploadConfig limits post image uploads.
type UploadConfig struct {
	MaxSize int64 // per image, in bytes
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

// TelemetryConfig enables OTLP tracing. Empty Endpoint disables the exporter.
type TelemetryConfig struct {
	Endpoint    string
	ServiceName string
}

// Load builds a Config from the environment.
// SESSION_SECRET is the only required value; everything else has a default.
func Load() (*Config, error) {
	// A missing .env is fine; production uses real environment variables.
	_ = godotenv.Load()

	port, err := getEnvInt("SERVER_PORT", 8007)
	if err != nil {
		return nil, err
	}
	backendTimeout, err := getEnvDuration("BACKEND_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := getEnvDuration("SESSION_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := getEnvDuration("CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	loginAttempts, err := getEnvInt("LOGIN_MAX_ATTEMPTS", 5)
	if err != nil {
		return nil, err
	}
	loginWindow, err := getEnvDuration("LOGIN_WINDOW", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	maxSize, err := strconv.ParseInt(getEnv("UPLOAD_MAX_SIZE", "5242880"), 10, 64) // 5MB
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_SIZE: %w", err)
	}

	secret := getEnv("SESSION_SECRET", "")
	if secret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	if key, err := hex.DecodeString(secret); err != nil || len(key) != 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be 64 hex characters")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			BasePath:       getEnv("BASE_PATH", "/admin"),
			TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "127.0.0.1,::1")),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/admin.db"),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(getEnv("BACKEND_URL", "https://orrelng.com"), "/"),
			Timeout: backendTimeout,
		},
		Session: SessionConfig{
			Secret:       secret,
			CookieName:   getEnv("SESSION_COOKIE", "admin_session"),
			TTL:          sessionTTL,
			CookieSecure: getEnvBool("SESSION_COOKIE_SECURE", true),
		},
		Cache: CacheConfig{
			TTL: cacheTTL,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", ""),
			Subject: getEnv("NATS_SUBJECT", "blogadmin.changes"),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("EMAIL_FROM", "careers@orrelng.com"),
			SiteName:     getEnv("SITE_NAME", "Orrelng"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		},
		RateLimit: RateLimitConfig{
			LoginMaxAttempts: loginAttempts,
			LoginWindow:      loginWindow,
		},
		Upload: UploadConfig{
			MaxSize: maxSize,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Telemetry: TelemetryConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "blog-admin"),
		},
	}

	return cfg, nil
}

// Addr returns the listen address (e.g. "0.0.0.0:8007").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv reads an environment variable, falling back when it is unset.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// getEnvBool treats anything strconv.ParseBool rejects as the fallback.
func getEnvBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
