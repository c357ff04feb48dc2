package config

import "time"

const httpTimeoutVar = "HTTP_TIMEOUT"

type HTTPConfig interface {
	GetRequestTimeout() time.Duration
}

type HTTP struct {
	requestTimeout time.Duration
}

var _ HTTPConfig = HTTP{}

func loadHTTP() HTTP {
	timeout, err := time.ParseDuration(GetEnv(httpTimeoutVar, "30s"))
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}
	return HTTP{requestTimeout: timeout}
}

func (h HTTP) GetRequestTimeout() time.Duration {
	return h.requestTimeout
}
