package errors

import (
	"errors"
	"fmt"
)

// Common error types for the connector
var (
	// Configuration errors
	ErrConfiguration = errors.New("configuration error")

	// Session errors
	ErrSessionNotFound  = errors.New("session not found")
	ErrUnauthenticated  = errors.New("session is not authenticated")
	ErrAuthExchange     = errors.New("token endpoint rejected the request")
	ErrUnrecognizedRole = errors.New("unrecognized access role type")

	// Partner API errors
	ErrUpstream     = errors.New("upstream request failed")
	ErrInvalidInput = errors.New("invalid input")
)

// ConfigurationError reports a missing or unrecognised configuration value.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// AuthExchangeError carries the identity provider's response for a failed
// authorization_code or refresh_token grant.
type AuthExchangeError struct {
	GrantType string
	Status    int
	Body      string
}

func (e *AuthExchangeError) Error() string {
	return fmt.Sprintf("%s grant failed: status=%d body=%s", e.GrantType, e.Status, e.Body)
}

func (e *AuthExchangeError) Unwrap() error { return ErrAuthExchange }

// UnrecognizedRoleError is returned when the access grant reports a roleType
// other than Organization or Tenant.
type UnrecognizedRoleError struct {
	RoleType string
}

func (e *UnrecognizedRoleError) Error() string {
	return fmt.Sprintf("unrecognized access role type %q", e.RoleType)
}

func (e *UnrecognizedRoleError) Unwrap() error { return ErrUnrecognizedRole }

// UpstreamError carries the status and body of a failed partner API call.
type UpstreamError struct {
	Method string
	URL    string
	Status int
	Body   string
	Reason string
}

func (e *UpstreamError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s %s: %s (status=%d body=%s)", e.Method, e.URL, e.Reason, e.Status, e.Body)
	}
	return fmt.Sprintf("%s %s: status=%d body=%s", e.Method, e.URL, e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

// InvalidInputf returns an ErrInvalidInput wrapped with a description.
func InvalidInputf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidInput}, args...)...)
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
