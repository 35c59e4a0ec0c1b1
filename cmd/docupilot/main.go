// Docupilot server — serves the REST API and the document/conversation
// WebSocket streams, and runs the event-driven conversation engines.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/docupilot-ai/docupilot/pkg/api"
	"github.com/docupilot-ai/docupilot/pkg/auth"
	"github.com/docupilot-ai/docupilot/pkg/blob"
	"github.com/docupilot-ai/docupilot/pkg/cleanup"
	"github.com/docupilot-ai/docupilot/pkg/config"
	"github.com/docupilot-ai/docupilot/pkg/conversation"
	"github.com/docupilot-ai/docupilot/pkg/costs"
	"github.com/docupilot-ai/docupilot/pkg/database"
	"github.com/docupilot-ai/docupilot/pkg/document"
	"github.com/docupilot-ai/docupilot/pkg/events"
	"github.com/docupilot-ai/docupilot/pkg/llm"
	"github.com/docupilot-ai/docupilot/pkg/queue"
	"github.com/docupilot-ai/docupilot/pkg/services"
	"github.com/docupilot-ai/docupilot/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configPath := flag.String("config",
		getEnv("CONFIG_PATH", "./deploy/config/docupilot.yaml"),
		"Path to configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"error", err)
	}

	ctx := context.Background()

	// 1. Configuration
	cfg, err := config.Initialize(*configPath)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("Starting docupilot",
		"version", version.Full(),
		"http_port", cfg.Server.HTTPPort,
		"config_path", *configPath)

	// 2. Database
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load database config", "error", err)
		os.Exit(1)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("Error closing database client", "error", err)
		}
	}()
	slog.Info("Connected to PostgreSQL database")

	// 3. Event bus and connection registry
	bus := events.NewBus(cfg.Bus.HighWaterMark)
	bus.Initialize(ctx)
	registry := events.NewRegistry(cfg.Conn.QueueCapacity, cfg.Conn.PutTimeout)
	registry.Attach(bus)

	// 4. Service scheduler
	sched := queue.NewScheduler(bus, queue.NewEntSessions(dbClient.Client), &cfg.Scheduler)
	sched.Start(ctx)

	// 5. LLM client and engines
	chatter, err := llm.NewOpenAIChatter(&cfg.LLM)
	if err != nil {
		slog.Error("Failed to initialize LLM client", "error", err)
		os.Exit(1)
	}
	guard := costs.NewGuard(&cfg.Costs)
	conversation.NewEngine(bus, cfg, chatter, guard).Register(sched)
	document.NewEngine(bus).Register(sched)
	slog.Info("Engines registered",
		"chat_model", cfg.LLM.ChatModelDefault,
		"cost_limit", cfg.Costs.Limit)

	// 6. Auth
	tokens, err := auth.NewTokenService(&cfg.Auth)
	if err != nil {
		slog.Error("Failed to initialize token service", "error", err)
		os.Exit(1)
	}
	var google *auth.GoogleVerifier
	if cfg.Auth.GoogleClientID != "" {
		google, err = auth.NewGoogleVerifier(ctx, &cfg.Auth)
		if err != nil {
			slog.Error("Failed to initialize Google verifier", "error", err)
			os.Exit(1)
		}
		slog.Info("Google login enabled")
	} else {
		slog.Info("Google login disabled, no client id configured")
	}

	// 7. Blob store for original uploads
	var blobs blob.Store
	if cfg.Blob.Bucket != "" {
		blobs, err = blob.NewS3Store(ctx, &cfg.Blob)
		if err != nil {
			slog.Error("Failed to initialize blob store", "error", err)
			os.Exit(1)
		}
		slog.Info("Blob store initialized", "bucket", cfg.Blob.Bucket)
	} else {
		blobs = blob.NewMemoryStore()
		slog.Warn("No blob bucket configured, storing originals in memory")
	}

	// 8. Background retention sweeper
	cleanupService := cleanup.NewService(&cfg.Retention,
		services.NewConversationService(dbClient.Client),
		services.NewDocumentService(dbClient.Client),
		blobs)
	cleanupService.Start(ctx)
	defer cleanupService.Stop()

	// 9. HTTP server
	httpServer := api.NewServer(cfg, dbClient, bus, registry, sched, tokens, google, blobs)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.HTTPPort
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	// 10. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 11. Graceful shutdown: stop accepting requests, let in-flight tasks
	// finish, then quiesce the bus.
	httpShutdownCtx, httpCancel := context.WithTimeout(ctx, 5*time.Second)
	defer httpCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	done := make(chan struct{})
	go func() {
		sched.Stop()
		close(done)
	}()
	select {
	case <-done:
		slog.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		slog.Warn("Scheduler shutdown timeout exceeded")
	}

	bus.Shutdown()
	slog.Info("Shutdown complete")
}
