package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-manager/internal/config"
	"inventory-manager/internal/notifications"
	"inventory-manager/internal/products"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	os.Exit(run(logger))
}

func run(logger *slog.Logger) int {
	cfg, err := config.LoadNotifications()
	if err != nil {
		logger.Error("load config", "error", err)
		return 1
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Error("connect rabbitmq", "error", err)
		return 1
	}
	defer conn.Close()
	brokerClosed := conn.NotifyClose(make(chan *amqp.Error, 1))

	consumer, err := notifications.NewConsumer(conn, products.EventsQueue, logger)
	if err != nil {
		logger.Error("init consumer", "queue", products.EventsQueue, "error", err)
		return 1
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listenCtx, cancelListen := context.WithCancel(ctx)
	defer cancelListen()

	done := make(chan error, 1)
	go func() {
		logger.Info("inventory notifications started", "queue", products.EventsQueue)
		done <- consumer.Listen(listenCtx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case amqpErr := <-brokerClosed:
		logger.Error("rabbitmq connection closed", "error", amqpErr)
		return 1
	case err := <-done:
		if err != nil {
			logger.Error("consumer failed", "error", err)
			return 1
		}
		logger.Info("inventory notifications stopped")
		return 0
	}

	cancelListen()
	select {
	case err := <-done:
		if err != nil {
			logger.Error("consumer stop failed", "error", err)
			return 1
		}
	case <-time.After(cfg.ShutdownTimeout):
		logger.Warn("consumer shutdown timeout reached", "timeout", cfg.ShutdownTimeout)
	}

	logger.Info("inventory notifications stopped")
	return 0
}
