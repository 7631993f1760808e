package config

import (
	"fmt"
	"time"
)

type Notifications struct {
	RabbitMQURL     string
	ShutdownTimeout time.Duration
}

func LoadNotifications() (Notifications, error) {
	shutdown, err := getDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
	if err != nil {
		return Notifications{}, err
	}

	cfg := Notifications{
		RabbitMQURL:     getEnv("RABBITMQ_URL", ""),
		ShutdownTimeout: shutdown,
	}

	if cfg.RabbitMQURL == "" {
		return Notifications{}, fmt.Errorf("RABBITMQ_URL is required")
	}

	return cfg, nil
}
