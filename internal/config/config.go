package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	DatabaseDriver      string
	DatabaseURL         string
	RedisURL            string
	NATSURL             string
	EventsChannel       string
	JWTSecret           string
	DashboardCacheTTL   time.Duration
	AnalyticsTimeout    time.Duration
	RecentActivityLimit int
	AttentionLimit      int
	RateLimitMax        int
	RateLimitWindow     time.Duration
	CORSAllowOrigins    string
	SeedEnabled         bool
	SeedToken           string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("INSIGHTS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Classroom Insights API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "3001")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("events.channel", "insights")
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("analytics.timeout", "10s")
	v.SetDefault("analytics.recent_activity_limit", 5)
	v.SetDefault("analytics.attention_limit", 5)
	v.SetDefault("rate_limit.max", 60)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("cors.allow_origins", "http://localhost:3000")
	v.SetDefault("seed.enabled", false)

	ttl, err := parseDuration(v, "dashboard.cache_ttl", 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	timeout, err := parseDuration(v, "analytics.timeout", 10*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid analytics timeout: %w", err)
	}

	window, err := parseDuration(v, "rate_limit.window", time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		DatabaseDriver:      strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		NATSURL:             v.GetString("nats.url"),
		EventsChannel:       v.GetString("events.channel"),
		JWTSecret:           v.GetString("jwt.secret"),
		DashboardCacheTTL:   ttl,
		AnalyticsTimeout:    timeout,
		RecentActivityLimit: v.GetInt("analytics.recent_activity_limit"),
		AttentionLimit:      v.GetInt("analytics.attention_limit"),
		RateLimitMax:        v.GetInt("rate_limit.max"),
		RateLimitWindow:     window,
		CORSAllowOrigins:    v.GetString("cors.allow_origins"),
		SeedEnabled:         v.GetBool("seed.enabled"),
		SeedToken:           v.GetString("seed.token"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.RecentActivityLimit <= 0 {
		cfg.RecentActivityLimit = 5
	}

	if cfg.AttentionLimit <= 0 {
		cfg.AttentionLimit = 5
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}
