package config

import (
	"os"
	"path/filepath"
	"strconv"
)

const (
	appNameVar     = "APP_NAME"
	envVar         = "NETOP_ENV"
	logLevelVar    = "LOG_LEVEL"
	logPrettyVar   = "LOG_PRETTY"
	sessionFileVar = "SESSION_FILE"
	sessionKeyVar  = "SESSION_KEY"
)

type EnvVars struct {
	appName     string
	environment string
	logLevel    string
	logPretty   bool
	sessionFile string
	sessionKey  string
}

var _ EnvConfig = EnvVars{}

func loadEnvVars() EnvVars {
	return EnvVars{
		appName:     GetEnv(appNameVar, "NetOp Connector"),
		environment: GetEnv(envVar, "production"),
		logLevel:    GetEnv(logLevelVar, "info"),
		logPretty:   GetEnvBool(logPrettyVar, true),
		sessionFile: GetEnv(sessionFileVar, defaultSessionFile()),
		sessionKey:  GetEnv(sessionKeyVar, ""),
	}
}

func (e EnvVars) GetAppName() string {
	return e.appName
}

// GetEnvironment returns the raw environment selector (production or staging).
func (e EnvVars) GetEnvironment() string {
	return e.environment
}

func (e EnvVars) GetLogLevel() string {
	return e.logLevel
}

func (e EnvVars) GetLogPretty() bool {
	return e.logPretty
}

// GetSessionFile is where the encrypted session is persisted between invocations.
func (e EnvVars) GetSessionFile() string {
	return e.sessionFile
}

// GetSessionKey is the passphrase the session file is sealed with. When empty the
// client secret is used.
func (e EnvVars) GetSessionKey() string {
	return e.sessionKey
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "netop-session.json"
	}
	return filepath.Join(dir, "netop", "session.json")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvBool(envVar string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}
