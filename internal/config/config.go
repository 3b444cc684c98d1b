package config

import "errors"

type Config interface {
	EnvConfig
	FeatureConfig
}

type EnvConfig interface {
	GetBaseURL() string
	GetRequestTimeoutMS() int
	GetAppName() string
	GetSessionFile() string
	GetEnv() string
}

type FeatureConfig interface {
	CommentsEnabled() bool
	NewsletterEnabled() bool
	AnalyticsEnabled() bool
}

type mainConfig struct {
	EnvVars
	Features
}

func New() Config {
	return mainConfig{}
}

// Validate checks that the required configuration is present. Only the base
// URL is mandatory; everything else has a workable default.
func Validate(c Config) error {
	if c.GetBaseURL() == "" {
		return errors.New("API base URL is not configured")
	}
	return nil
}
