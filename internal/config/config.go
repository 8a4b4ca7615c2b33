package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	DatabaseURL string
	Port        string
	BaseURL     string // external base URL used to build watch links
	JWTSecret   string
	AdminAPIKey string

	// Upstream providers
	DriveAccessToken string // Google Drive OAuth bearer token (read-only scope)
	VimeoPlayerBase  string

	// Optional shared cooldown store; empty means per-instance in-memory
	RedisAddr     string
	RedisPassword string

	PlaybackCooldown time.Duration
	RateLimitWindow  time.Duration
	RateLimitMax     int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:             "8080",
		VimeoPlayerBase:  "https://player.vimeo.com/video",
		PlaybackCooldown: 2 * time.Second,
		RateLimitWindow:  15 * time.Minute,
		RateLimitMax:     100,
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	cfg.DatabaseURL = databaseURL

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	cfg.JWTSecret = jwtSecret

	adminKey := os.Getenv("ADMIN_API_KEY")
	if adminKey == "" {
		return nil, fmt.Errorf("ADMIN_API_KEY environment variable is required")
	}
	cfg.AdminAPIKey = adminKey

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if base := os.Getenv("BASE_URL"); base != "" {
		cfg.BaseURL = base
	}
	cfg.DriveAccessToken = os.Getenv("DRIVE_ACCESS_TOKEN")
	if base := os.Getenv("VIMEO_PLAYER_BASE"); base != "" {
		cfg.VimeoPlayerBase = base
	}
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	if v := os.Getenv("PLAYBACK_COOLDOWN_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return nil, fmt.Errorf("PLAYBACK_COOLDOWN_MS must be a non-negative integer")
		}
		cfg.PlaybackCooldown = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_WINDOW_MS must be a positive integer")
		}
		cfg.RateLimitWindow = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv("RATE_LIMIT_MAX_REQUESTS"); v != "" {
		max, err := strconv.Atoi(v)
		if err != nil || max <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be a positive integer")
		}
		cfg.RateLimitMax = max
	}

	return cfg, nil
}
