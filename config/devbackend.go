package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

// DevBackendConfig configures the local stand-in for the blog backend.
type DevBackendConfig struct {
	Host          string
	Port          int
	DatabasePath  string
	UploadDir     string
	JWTSecret     string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	CookieSecure  bool
	AdminName     string
	AdminEmail    string
	AdminPassword string
	Log           LogConfig
}

// LoadDevBackend builds a DevBackendConfig from the environment.
// DEV_JWT_SECRET is required; the admin seed is skipped when DEV_ADMIN_EMAIL
// is empty.
func LoadDevBackend() (*DevBackendConfig, error) {
	_ = godotenv.Load()

	port, err := getEnvInt("DEV_PORT", 5000)
	if err != nil {
		return nil, err
	}
	accessTTL, err := getEnvDuration("DEV_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := getEnvDuration("DEV_REFRESH_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	secret := getEnv("DEV_JWT_SECRET", "")
	if len(secret) < 32 {
		return nil, fmt.Errorf("DEV_JWT_SECRET must be at least 32 characters")
	}

	return &DevBackendConfig{
		Host:          getEnv("DEV_HOST", "127.0.0.1"),
		Port:          port,
		DatabasePath:  getEnv("DEV_DATABASE_PATH", "./data/devbackend.db"),
		UploadDir:     getEnv("DEV_UPLOAD_DIR", "./data/uploads"),
		JWTSecret:     secret,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		CookieSecure:  getEnvBool("DEV_COOKIE_SECURE", false),
		AdminName:     getEnv("DEV_ADMIN_NAME", "Admin"),
		AdminEmail:    getEnv("DEV_ADMIN_EMAIL", ""),
		AdminPassword: getEnv("DEV_ADMIN_PASSWORD", ""),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "debug"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}, nil
}

// Addr returns the listen address.
func (c *DevBackendConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
