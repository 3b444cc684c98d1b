package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	baseURLVar     = "API_BASE_URL"
	timeoutVar     = "API_TIMEOUT_MS"
	appNameVar     = "APP_NAME"
	sessionFileVar = "SESSION_FILE"

	// Local development fallback: the backend's default dev address.
	defaultBaseURL   = "http://127.0.0.1:8000/api/v1/"
	defaultTimeoutMS = 10000
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

// GetBaseURL returns the API base URL all resource paths are relative to.
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, defaultBaseURL)
}

// GetRequestTimeoutMS returns the per-request timeout in milliseconds.
// The timeout is always finite; an unparseable value falls back to the
// default rather than disabling the bound.
func (EnvVars) GetRequestTimeoutMS() int {
	raw := GetEnv(timeoutVar, "")
	if raw == "" {
		return defaultTimeoutMS
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return defaultTimeoutMS
	}
	return ms
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "VICTO AI")
}

// GetSessionFile returns the path the file-backed session store persists to.
func (EnvVars) GetSessionFile() string {
	if path := GetEnv(sessionFileVar, ""); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".victoai/session.json"
	}
	return home + "/.victoai/session.json"
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

type Features struct{}

var _ FeatureConfig = Features{}

func (Features) CommentsEnabled() bool {
	return GetBoolEnv("ENABLE_COMMENTS", true)
}

func (Features) NewsletterEnabled() bool {
	return GetBoolEnv("ENABLE_NEWSLETTER", true)
}

func (Features) AnalyticsEnabled() bool {
	return GetBoolEnv("ENABLE_ANALYTICS", false)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetBoolEnv(envVar string, defaultValue bool) bool {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return strings.EqualFold(value, "true")
}
