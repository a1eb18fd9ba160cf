package config

import (
	"time"

	"healthtrack.zzh.net/internal/ratelimit"
)

// RateLimiter contains configuration for rate limiting. Each policy block maps
// onto one ratelimit.Policy; the three policies keep independent counters for
// the same caller.
type RateLimiter struct {
    Enabled bool `mapstructure:"LIMITER_ENABLED"`

    GeneralWindow  time.Duration `mapstructure:"LIMITER_GENERAL_WINDOW"`
    GeneralMax     int           `mapstructure:"LIMITER_GENERAL_MAX"`
    GeneralMessage string        `mapstructure:"LIMITER_GENERAL_MESSAGE"`

    AuthWindow  time.Duration `mapstructure:"LIMITER_AUTH_WINDOW"`
    AuthMax     int           `mapstructure:"LIMITER_AUTH_MAX"`
    AuthMessage string        `mapstructure:"LIMITER_AUTH_MESSAGE"`

    UploadWindow  time.Duration `mapstructure:"LIMITER_UPLOAD_WINDOW"`
    UploadMax     int           `mapstructure:"LIMITER_UPLOAD_MAX"`
    UploadMessage string        `mapstructure:"LIMITER_UPLOAD_MESSAGE"`

    SweepInterval time.Duration `mapstructure:"LIMITER_SWEEP_INTERVAL"`
}

// GeneralPolicy returns the policy guarding most endpoints.
func (rl RateLimiter) GeneralPolicy() ratelimit.Policy {
    return ratelimit.Policy{
        Name:    "general",
        Window:  rl.GeneralWindow,
        Max:     rl.GeneralMax,
        Message: rl.GeneralMessage,
    }
}

// AuthPolicy returns the policy guarding login and registration endpoints.
func (rl RateLimiter) AuthPolicy() ratelimit.Policy {
    return ratelimit.Policy{
        Name:    "auth",
        Window:  rl.AuthWindow,
        Max:     rl.AuthMax,
        Message: rl.AuthMessage,
    }
}

// UploadPolicy returns the policy guarding file upload endpoints.
func (rl RateLimiter) UploadPolicy() ratelimit.Policy {
    return ratelimit.Policy{
        Name:    "upload",
        Window:  rl.UploadWindow,
        Max:     rl.UploadMax,
        Message: rl.UploadMessage,
    }
}
