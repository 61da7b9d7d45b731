package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"finance-service/internal/config"
	"finance-service/internal/server"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("Finance: No .env file found, relying on system env vars")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()

	srv := server.NewServer(cfg, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("finance service HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		errCh <- srv.HTTP.ListenAndServe()
	}()

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("finance service shutting down gracefully")
		if err := srv.HTTP.Shutdown(ctx); err != nil {
			logger.Error("finance service shutdown error", zap.Error(err))
		}
		srv.Close()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("finance service failed", zap.Error(err))
		}
	}
}
