package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bot-dashboard/internal/config"
	"bot-dashboard/internal/database"
	"bot-dashboard/internal/logger"
	"bot-dashboard/internal/repository"
	"bot-dashboard/internal/server"
	"bot-dashboard/internal/transport"

	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// In-flight requests, including bulk registry calls, get 30 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(ctx); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

// openStore selects the product store configured by DB_DRIVER
func openStore(cfg *config.Config, log *zap.Logger) (server.Store, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("Using in-memory product store; data is lost on restart")
		return server.Store{
			Products: repository.NewMemoryProductRepository(),
			Health:   transport.MemoryHealth{},
		}, nil
	}

	dbService, err := database.New(cfg.Database)
	if err != nil {
		return server.Store{}, err
	}
	db := dbService.DB()

	log.Info("Database health check", zap.Any("health", dbService.Health()))

	if err := database.RunMigrations(db, log); err != nil {
		dbService.Close()
		return server.Store{}, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("Database migrations completed successfully")

	return server.Store{
		Products: repository.NewProductRepository(db),
		Health:   dbService,
		Close:    dbService.Close,
	}, nil
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.Server.Env, cfg.Log.Level, cfg.Log.File)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting bot dashboard API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	store, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to open product store", zap.Error(err))
	}

	srv, err := server.NewServer(cfg, log, store)
	if err != nil {
		log.Fatal("Failed to create server", zap.Error(err))
	}

	startCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	srv.StartBackground(startCtx)
	cancel()

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
}
