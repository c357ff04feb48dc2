package config

import (
	"strings"

	"github.com/jrsteele09/netop-connector/environment"
	apperrors "github.com/jrsteele09/netop-connector/internal/errors"
)

type Config interface {
	EnvConfig
	OAuthConfig
	HTTPConfig
	Validate() error
}

type EnvConfig interface {
	GetAppName() string
	GetEnvironment() string
	GetLogLevel() string
	GetLogPretty() bool
	GetSessionFile() string
	GetSessionKey() string
}

type mainConfig struct {
	EnvVars
	OAuth
	HTTP
}

// New snapshots the process environment. The returned Config is read-only.
func New() Config {
	return mainConfig{
		EnvVars: loadEnvVars(),
		OAuth:   loadOAuth(),
		HTTP:    loadHTTP(),
	}
}

// Validate checks the values the connector cannot run without.
func (c mainConfig) Validate() error {
	if _, err := environment.Parse(c.GetEnvironment()); err != nil {
		return err
	}
	if strings.TrimSpace(c.GetClientID()) == "" {
		return &apperrors.ConfigurationError{Field: clientIDVar, Reason: "is required"}
	}
	if strings.TrimSpace(c.GetClientSecret()) == "" {
		return &apperrors.ConfigurationError{Field: clientSecretVar, Reason: "is required"}
	}
	switch c.GetBearerToken() {
	case BearerAccessToken, BearerIDToken:
	default:
		return &apperrors.ConfigurationError{Field: bearerTokenVar, Reason: "must be access_token or id_token"}
	}
	return nil
}
