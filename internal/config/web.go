package config

import (
	"fmt"
	"net/url"
	"time"
)

const (
	defaultAPIBaseURL = "http://127.0.0.1:5000/api/productos"
	defaultWebAddr    = ":8000"
	defaultAPITimeout = 5 * time.Second
)

type Web struct {
	APIBaseURL        string
	HTTPAddr          string
	APITimeout        time.Duration
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
}

func LoadWeb() (Web, error) {
	timeout, err := getDuration("API_TIMEOUT", defaultAPITimeout)
	if err != nil {
		return Web{}, err
	}
	shutdown, err := getDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
	if err != nil {
		return Web{}, err
	}

	cfg := Web{
		APIBaseURL:        getEnv("API_BASE_URL", defaultAPIBaseURL),
		HTTPAddr:          getEnv("WEB_HTTP_ADDR", defaultWebAddr),
		APITimeout:        timeout,
		ShutdownTimeout:   shutdown,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
	}

	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Web{}, fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", cfg.APIBaseURL)
	}

	return cfg, nil
}
