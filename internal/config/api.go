package config

import (
	"fmt"
	"os"
	"time"
)

const (
	defaultInventoryFile     = "inventario.json"
	defaultHTTPAddr          = ":5000"
	defaultShutdownTimeout   = 10 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
)

type API struct {
	InventoryFile     string
	HTTPAddr          string
	// RabbitMQURL is optional; events are dropped when it is empty.
	RabbitMQURL       string
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
}

func LoadAPI() (API, error) {
	shutdown, err := getDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
	if err != nil {
		return API{}, err
	}

	cfg := API{
		InventoryFile:     getEnv("INVENTORY_FILE", defaultInventoryFile),
		HTTPAddr:          getEnv("HTTP_ADDR", defaultHTTPAddr),
		RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
		ShutdownTimeout:   shutdown,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}
