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
	"inventory-manager/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	os.Exit(run(logger))
}

func run(logger *slog.Logger) int {
	cfg, err := config.LoadWeb()
	if err != nil {
		logger.Error("load config", "error", err)
		return 1
	}

	tmpl, err := web.Templates()
	if err != nil {
		logger.Error("parse templates", "error", err)
		return 1
	}

	client := web.NewClient(cfg.APIBaseURL, cfg.APITimeout)
	handler := web.NewHandler(client, client.BaseURL(), logger)

	router := gin.New()
	router.Use(middleware.Recovery(logger, handler.InternalError))
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger))
	router.SetHTMLTemplate(tmpl)
	web.RegisterRoutes(router, handler)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("inventory web started", "addr", cfg.HTTPAddr, "api", client.BaseURL())
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
	logger.Info("inventory web stopped")
	return 0
}
