package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"agent-chat-relay/backend/pkg/config"
	"agent-chat-relay/backend/pkg/di"
	"agent-chat-relay/backend/pkg/logger"
	"agent-chat-relay/backend/pkg/router"
	"agent-chat-relay/backend/shared/observability"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration; an invalid server config is fatal, a missing
	// agent credential group is not
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	appLogger := logger.New(logConfig)
	logger.SetGlobal(appLogger)

	appLogger.Info("Starting agent chat relay",
		"port", cfg.Server.Port,
		"agent_configured", cfg.Agent.Configured(),
	)

	// Set up tracing and metrics
	shutdownTracing := observability.SetupTracing("agent-chat-relay")
	defer shutdownTracing()
	observability.SetupPrometheusMetrics()

	// Initialize dependency injection container
	container := di.New(cfg, appLogger)

	// Initialize and setup router
	r := router.New(container)
	r.SetupRoutes()

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: r.Engine,
	}

	// Start the server in a goroutine
	go func() {
		appLogger.Info("Server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal
	<-quit
	appLogger.Info("Shutting down server...")

	// Create a deadline to wait for
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.LogError(err, "Server forced to shutdown")
	}

	appLogger.Info("Server exited gracefully")
}
