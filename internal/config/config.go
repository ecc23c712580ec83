// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/forecheck.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Season context
// --------------------------------------------------------------------------

const (
	// DefaultSeasonID is the NHL season identifier (startYear+endYear).
	DefaultSeasonID = "20252026"
	// RegularSeason is the NHL game-type code for regular-season games.
	RegularSeason = 2
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Season scope
	SeasonID string
	GameType int

	// Trend classification
	TrendHotThreshold  float64
	TrendColdThreshold float64

	// Alerts & scan refresh
	AlertHorizon        time.Duration
	AlertRetention      time.Duration
	ScanStaleAfter      time.Duration
	ScanRefreshInterval time.Duration

	// Recalculation
	RecalcWorkers     int
	AutoRecalcOnSave  bool
	ListenChannelName string

	// Cache
	CacheEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("FORECHECK_DATABASE_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or FORECHECK_DATABASE_URL must be set")
	}

	cfg := &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		SeasonID: envOr("SEASON_ID", DefaultSeasonID),
		GameType: envInt("GAME_TYPE", RegularSeason),

		TrendHotThreshold:  envFloat("TREND_HOT_THRESHOLD", 0.25),
		TrendColdThreshold: envFloat("TREND_COLD_THRESHOLD", -0.25),

		AlertHorizon:        time.Duration(envInt("ALERT_HORIZON_HOURS", 36)) * time.Hour,
		AlertRetention:      time.Duration(envInt("ALERT_RETENTION_DAYS", 30)) * 24 * time.Hour,
		ScanStaleAfter:      time.Duration(envInt("SCAN_STALE_MINUTES", 30)) * time.Minute,
		ScanRefreshInterval: time.Duration(envInt("SCAN_REFRESH_MINUTES", 15)) * time.Minute,

		RecalcWorkers:     envInt("RECALC_WORKERS", 4),
		AutoRecalcOnSave:  envBool("AUTO_RECALC_ON_SAVE", true),
		ListenChannelName: envOr("GAME_LOG_NOTIFY_CHANNEL", "game_logs_changed"),

		CacheEnabled: envBool("CACHE_ENABLED", true),
	}

	if cfg.TrendColdThreshold >= cfg.TrendHotThreshold {
		return nil, fmt.Errorf("TREND_COLD_THRESHOLD must be below TREND_HOT_THRESHOLD")
	}
	if cfg.RecalcWorkers < 1 {
		cfg.RecalcWorkers = 1
	}

	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
