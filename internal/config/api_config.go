package config

import (
	"strings"
	"time"
)

type APIConfig interface {
	GetAPIBaseURL() string
	GetAPIVersion() string
	GetAPITimeout() time.Duration
}

type API struct{}

var _ APIConfig = API{}

// GetAPIBaseURL returns the AI backend address without the version prefix
func (API) GetAPIBaseURL() string {
	return strings.TrimSuffix(GetEnv("API_BASE_URL", "http://localhost:5000"), "/")
}

// GetAPIVersion returns the versioned path prefix, always starting with "/"
func (API) GetAPIVersion() string {
	version := strings.TrimSuffix(GetEnv("API_VERSION", "/api/v1"), "/")
	if version != "" && !strings.HasPrefix(version, "/") {
		version = "/" + version
	}
	return version
}

func (API) GetAPITimeout() time.Duration {
	return GetEnvDuration("API_TIMEOUT", 60*time.Second) // AI generation calls are slow
}
