package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"fittrack/drawing-engine/application"
	"fittrack/drawing-engine/config"
	"fittrack/drawing-engine/database"
	"fittrack/drawing-engine/domain/services"
	"fittrack/drawing-engine/infrastructure"
	"fittrack/drawing-engine/infrastructure/observability"
)

// Run initializes and starts the drawing engine
func Run(ctx context.Context) error {
	log.Println("Starting drawing engine...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize NATS
	log.Printf("Connecting to NATS at %s...", cfg.NATSServers)
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	eventPublisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
	if err := eventPublisher.EnsureDrawingEventStream(); err != nil {
		return fmt.Errorf("failed to ensure drawing event stream: %w", err)
	}
	log.Println("NATS event publisher initialized successfully")

	// Initialize unit of work factory
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)

	// Start the drawing scheduler
	scheduler := application.NewDrawingScheduler(uowFactory, eventPublisher, services.NewCryptoRandomSource(), cfg)
	stopScheduler, err := scheduler.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// Serve Prometheus metrics until shutdown
	metricsDone := make(chan error, 1)
	go func() {
		metricsDone <- observability.Serve(ctx, cfg.MetricsAddr)
	}()

	// Wait for context cancellation
	log.Printf("Drawing engine is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down drawing engine...")

	stopScheduler()

	if err := <-metricsDone; err != nil {
		log.Printf("Metrics server error: %v", err)
	}

	if err := natsClient.Close(); err != nil {
		log.Printf("Error closing NATS connection: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}
