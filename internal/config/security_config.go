package config

import "time"

type SecurityConfig interface {
	GetSessionSecret() string
	GetSessionMaxAge() time.Duration
	GetEnableRateLimiting() bool
	GetRateLimit() (rps float64, burst int)
}

type Security struct{}

var _ SecurityConfig = Security{}

// devSessionSecret is only used when SESSION_SECRET is unset; never in production.
const devSessionSecret = "resumeforge-dev-session-secret-change-me"

func (Security) GetSessionSecret() string {
	return GetEnv("SESSION_SECRET", devSessionSecret)
}

func (Security) GetSessionMaxAge() time.Duration {
	return GetEnvDuration("SESSION_MAX_AGE", 7*24*time.Hour)
}

func (s Security) GetEnableRateLimiting() bool {
	rps, _ := s.GetRateLimit()
	return rps > 0
}

// GetRateLimit returns the per-IP limit applied to form submissions. A zero rate disables limiting.
func (Security) GetRateLimit() (float64, int) {
	return GetEnvFloat("RATE_LIMIT_RPS", 0), GetEnvInt("RATE_LIMIT_BURST", 5)
}
