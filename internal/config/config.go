// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/penshort/costboard/internal/costmodel"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Click tracking service
	TrackingURL            string        `env:"TRACKING_URL,required,notEmpty"`
	TrackingHealthTimeout  time.Duration `env:"TRACKING_HEALTH_TIMEOUT" envDefault:"2s"`
	TrackingRequestTimeout time.Duration `env:"TRACKING_REQUEST_TIMEOUT" envDefault:"3s"`
	HealthTTL              time.Duration `env:"HEALTH_TTL" envDefault:"10s"`
	PublicURLTTL           time.Duration `env:"PUBLIC_URL_TTL" envDefault:"60s"`
	SnapshotTTL            time.Duration `env:"SNAPSHOT_TTL" envDefault:"30s"`

	// Shared snapshot cache (Redis). Optional; empty disables it.
	RedisURL string `env:"REDIS_URL" envDefault:""`

	// Default control values, used when a request omits them
	DefaultBadgeVolume      int    `env:"DEFAULT_BADGE_VOLUME" envDefault:"100"`
	DefaultBadgeScenario    string `env:"DEFAULT_BADGE_SCENARIO" envDefault:"best"`
	DefaultMemeVolume       int    `env:"DEFAULT_MEME_VOLUME" envDefault:"50"`
	DefaultInstagramRefresh string `env:"DEFAULT_INSTAGRAM_REFRESH" envDefault:"Daily"`
	DefaultBlogVolume       int    `env:"DEFAULT_BLOG_VOLUME" envDefault:"10"`
	DefaultNewsRefresh      string `env:"DEFAULT_NEWS_REFRESH" envDefault:"Daily"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// DefaultInputs converts the default control values into projection inputs.
func (c *Config) DefaultInputs() (costmodel.Inputs, error) {
	scenario, err := costmodel.ParseRetryScenario(c.DefaultBadgeScenario)
	if err != nil {
		return costmodel.Inputs{}, fmt.Errorf("DEFAULT_BADGE_SCENARIO: %w", err)
	}
	instagram, err := costmodel.ParseCadence(c.DefaultInstagramRefresh)
	if err != nil {
		return costmodel.Inputs{}, fmt.Errorf("DEFAULT_INSTAGRAM_REFRESH: %w", err)
	}
	news, err := costmodel.ParseCadence(c.DefaultNewsRefresh)
	if err != nil {
		return costmodel.Inputs{}, fmt.Errorf("DEFAULT_NEWS_REFRESH: %w", err)
	}

	return costmodel.Inputs{
		BadgeVolume:      c.DefaultBadgeVolume,
		BadgeScenario:    scenario,
		MemeVolume:       c.DefaultMemeVolume,
		InstagramRefresh: instagram,
		BlogVolume:       c.DefaultBlogVolume,
		NewsRefresh:      news,
	}, nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing or the default
// control values do not form a valid projection.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	inputs, err := cfg.DefaultInputs()
	if err != nil {
		return nil, fmt.Errorf("invalid default controls: %w", err)
	}
	agg := costmodel.NewAggregator(costmodel.DefaultCatalog(), costmodel.DefaultProration())
	if _, err := agg.Compute(inputs); err != nil {
		return nil, fmt.Errorf("invalid default controls: %w", err)
	}

	return cfg, nil
}
