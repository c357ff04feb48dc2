package environment

import (
	"fmt"
	"strings"

	apperrors "github.com/jrsteele09/netop-connector/internal/errors"
)

// Environment selects which NetOp deployment the connector talks to.
type Environment string

const (
	Production Environment = "production"
	Staging    Environment = "staging"
)

var hosts = map[Environment]string{
	Production: "netopcld.net",
	Staging:    "net-bot.com",
}

// Parse converts a configuration value into an Environment. Matching is case
// insensitive; anything else is a configuration error.
func Parse(value string) (Environment, error) {
	env := Environment(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := hosts[env]; !ok {
		return "", &apperrors.ConfigurationError{Field: "environment", Reason: fmt.Sprintf("unrecognized value %q", value)}
	}
	return env, nil
}

// Resolve returns the partner API host for env.
func Resolve(env Environment) (string, error) {
	host, ok := hosts[env]
	if !ok {
		return "", &apperrors.ConfigurationError{Field: "environment", Reason: fmt.Sprintf("unrecognized value %q", string(env))}
	}
	return host, nil
}

// BaseURL returns the https origin of the partner API for env.
func BaseURL(env Environment) (string, error) {
	host, err := Resolve(env)
	if err != nil {
		return "", err
	}
	return "https://" + host, nil
}

func (e Environment) String() string {
	return string(e)
}
