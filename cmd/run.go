package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"redpockets/api"
	"redpockets/broadcast"
	"redpockets/config"
	"redpockets/database"
	"redpockets/events"
	"redpockets/repository"
	"redpockets/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting redpockets service...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	log.Println("Initializing services...")
	cache := service.NewEnvelopeCache()
	previews := service.NewPreviewService()
	ledger := service.NewLedgerService(uowFactory)
	engine := service.NewEnvelopeService(uowFactory, cache, previews, ledger)
	snapshots := service.NewSnapshotService(uowFactory)
	reconciliation := service.NewReconciliationService(uowFactory, ledger,
		time.Duration(cfg.ReconcileGraceSeconds)*time.Second)
	log.Println("Services initialized successfully")

	// Wire the Kafka announcer when brokers are configured
	var announcer *broadcast.Announcer
	if len(cfg.KafkaBrokers) > 0 {
		log.Println("Initializing Kafka announcer...")
		announcer = broadcast.NewAnnouncer(cfg.KafkaBrokers, cfg.KafkaTopic)
		announcer.Register(eventBus)
		log.Println("Kafka announcer initialized successfully")
	}

	// Start background workers
	go reconciliation.Run(ctx, time.Duration(cfg.ReconcileIntervalSeconds)*time.Second)
	go previews.Run(ctx, time.Minute)
	go cache.Run(ctx, time.Minute)

	// Start the HTTP API
	handlers := api.NewHandlers(engine, snapshots, previews)
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewRouter(handlers),
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP API listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for context cancellation or a server failure
	log.Printf("Service is running in %s mode...", cfg.Environment)
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return fmt.Errorf("HTTP server error: %w", err)
	}

	// Cleanup resources
	log.Println("Shutting down service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	if announcer != nil {
		if err := announcer.Close(); err != nil {
			log.Printf("Error closing Kafka announcer: %v", err)
		}
	}

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}
