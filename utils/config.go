// utils/config.go
package utils

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config centralizes the tunables that used to live as call-site literals:
// the notification batch window and the per-endpoint rate-limit knobs all
// come from one place, overridable via environment.
type Config struct {
	Port           int    `envconfig:"PORT" default:"5300"`
	DatabaseURL    string `envconfig:"DATABASE_URL" required:"true"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// Notification batching
	BatchWindowMinutes int `envconfig:"NOTIFICATION_BATCH_WINDOW_MINUTES" default:"15"`

	// Rate limiting (per endpoint purpose)
	LikeRateMax         int `envconfig:"RATE_LIMIT_LIKE_MAX" default:"30"`
	LikeRateWindowSec   int `envconfig:"RATE_LIMIT_LIKE_WINDOW_SECONDS" default:"60"`
	PostRateMax         int `envconfig:"RATE_LIMIT_POST_MAX" default:"10"`
	PostRateWindowSec   int `envconfig:"RATE_LIMIT_POST_WINDOW_SECONDS" default:"300"`
	SurveyRateMax       int `envconfig:"RATE_LIMIT_SURVEY_MAX" default:"5"`
	SurveyRateWindowSec int `envconfig:"RATE_LIMIT_SURVEY_WINDOW_SECONDS" default:"600"`

	// External collaborators
	SyncServiceURL    string `envconfig:"SYNC_SERVICE_URL"`
	BillingServiceURL string `envconfig:"BILLING_SERVICE_URL"`
}

// LoadConfig reads the environment into a Config
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// BatchWindow returns the notification batch window as a duration
func (c *Config) BatchWindow() time.Duration {
	return time.Duration(c.BatchWindowMinutes) * time.Minute
}
