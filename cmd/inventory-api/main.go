package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"inventory-manager/internal/config"
	"inventory-manager/internal/middleware"
	"inventory-manager/internal/products"
	producthttp "inventory-manager/internal/products/http"
	"inventory-manager/internal/products/messaging"
	"inventory-manager/internal/products/service"
	"inventory-manager/internal/products/store"

	_ "inventory-manager/docs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	metricCreatedTotal = "inventory_products_created_total"
	metricUpdatedTotal = "inventory_products_updated_total"
	metricDeletedTotal = "inventory_products_deleted_total"
)

type eventPublisher interface {
	service.Publisher
	Close() error
}

// @title        Inventory API
// @version      1.0
// @description  JSON API over a file backed product inventory.
// @host         localhost:5000
// @BasePath     /
func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	os.Exit(run(logger))
}

func run(logger *slog.Logger) int {
	cfg, err := config.LoadAPI()
	if err != nil {
		logger.Error("load config", "error", err)
		return 1
	}

	fileStore := store.NewFile(cfg.InventoryFile, logger)
	if err := fileStore.EnsureFile(context.Background()); err != nil {
		logger.Error("prepare inventory file", "path", cfg.InventoryFile, "error", err)
		return 1
	}

	publisher, closeBroker, err := newPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Error("init publisher", "error", err)
		return 1
	}
	defer closeBroker()
	defer publisher.Close()

	metrics := service.Metrics{
		Created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricCreatedTotal,
			Help: "Total number of products created",
		}),
		Updated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricUpdatedTotal,
			Help: "Total number of products updated",
		}),
		Deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricDeletedTotal,
			Help: "Total number of products deleted",
		}),
	}
	prometheus.MustRegister(metrics.Created, metrics.Updated, metrics.Deleted)

	svc := service.New(fileStore, publisher, logger, metrics)
	handler := producthttp.NewHandler(svc, logger)

	router := gin.New()
	router.Use(middleware.Recovery(logger, producthttp.InternalError))
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.AccessLog(logger))
	producthttp.RegisterRoutes(router, handler, fileStore)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("inventory api started", "addr", cfg.HTTPAddr, "file", fileStore.Path())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("http server failed", "error", err)
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return 1
	}
	logger.Info("inventory api stopped")
	return 0
}

// newPublisher connects to RabbitMQ when a URL is configured. Without one,
// events are dropped and the API keeps serving.
func newPublisher(url string, logger *slog.Logger) (eventPublisher, func(), error) {
	if url == "" {
		logger.Info("RABBITMQ_URL not set, inventory events disabled")
		return messaging.NopPublisher{}, func() {}, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}

	publisher, err := messaging.NewRabbitPublisher(conn, products.EventsQueue)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	return publisher, func() { _ = conn.Close() }, nil
}
