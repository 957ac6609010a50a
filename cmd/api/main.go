package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sbstnppl/worldkeeper/internal/config"
	"github.com/sbstnppl/worldkeeper/internal/engine"
	"github.com/sbstnppl/worldkeeper/internal/handlers"
	"github.com/sbstnppl/worldkeeper/internal/logger"
	"github.com/sbstnppl/worldkeeper/internal/middleware"
	"github.com/sbstnppl/worldkeeper/internal/services/dice"
	"github.com/sbstnppl/worldkeeper/internal/services/queue"
	"github.com/sbstnppl/worldkeeper/internal/storage"
	"github.com/sbstnppl/worldkeeper/pkg/needs"
	"github.com/sbstnppl/worldkeeper/pkg/world"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Worldkeeper API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir)

	store, err := storage.NewPostgresStore(cfg.DatabaseURL, cfg.DataDir, log)
	if err != nil {
		log.Error("Failed to open database", "error", err)
		os.Exit(1)
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer startupCancel()

	if err := store.WaitForConnection(startupCtx); err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := store.Migrate(startupCtx); err != nil {
		log.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	log.Info("Database connection established successfully")

	queueClient, err := queue.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Redis connection established successfully")

	feed := queue.NewEventFeed(queueClient)
	locks := queue.NewSessionLock(queueClient, cfg.SessionLockTTL)
	bus := queue.NewBus(feed, queue.NewBroadcaster(queueClient), log)

	checker := dice.NewRoller(0)
	needsEngine := engine.NewNeedsEngine(store, needs.DefaultTuning(), log)
	registry := engine.NewModifierRegistry(store, log)
	tracker := engine.NewDiscoveryTracker(store, log)
	orch := engine.NewTravelOrchestrator(store, needsEngine, tracker, checker, world.DefaultCatalog(), log)
	exec := engine.NewExecutor(store, needsEngine, registry, tracker, orch, checker, bus, locks, log)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, queueClient, log)
	mux.Handle("/health", healthHandler)

	sessionHandler := handlers.NewSessionHandler(store, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	toolsHandler := handlers.NewToolsHandler(exec, log)
	mux.Handle("/v1/tools", toolsHandler)

	worldHandler := handlers.NewWorldHandler(store, log)
	mux.Handle("/v1/worlds", worldHandler)
	mux.Handle("/v1/worlds/", worldHandler)

	eventsHandler := handlers.NewEventsHandler(queueClient.GetRedisClient(), log)
	mux.Handle("/v1/events/sessions/", eventsHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays unset so SSE connections can outlive it.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := queueClient.Close(); err != nil {
		log.Error("Error closing Redis connection", "error", err)
	}
	if err := store.Close(); err != nil {
		log.Error("Error closing database connection", "error", err)
	}

	log.Info("Server exited")
}
