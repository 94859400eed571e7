package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"fittrack/drawing-engine/cmd"
	"fittrack/drawing-engine/config"
	"fittrack/drawing-engine/database"
	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/services"
	"fittrack/drawing-engine/infrastructure"
)

func main() {
	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error:", err)
		}
		return
	}

	// Check for manual point grant subcommand
	if len(os.Args) > 1 && os.Args[1] == "grant-points" {
		if err := handlePointGrant(); err != nil {
			log.Fatal("Point grant error:", err)
		}
		return
	}

	// Normal engine operation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	// Run the application
	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error:", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: drawing-engine migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

// handlePointGrant appends an adjust entry to an account's ledger. Used for
// support corrections; goes through the ledger service so the balance
// invariant holds.
func handlePointGrant() error {
	if len(os.Args) < 4 {
		return fmt.Errorf("usage: drawing-engine grant-points account-id amount")
	}
	accountID := os.Args[2]
	amount, err := strconv.ParseInt(os.Args[3], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", os.Args[3], err)
	}

	ctx := context.Background()
	cfg := config.Get()

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Support grants don't notify anyone
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, infrastructure.NewNoopEventPublisher())
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ledger := services.NewLedgerService(uow.AccountRepository(), uow.LedgerRepository(), uow.EventBus())
	entry, err := ledger.Record(ctx, accountID, entities.EntryKindAdjust, amount, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to record adjustment: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit adjustment: %w", err)
	}

	log.Printf("Granted %d points to account %s (entry %d, balance %d)", amount, accountID, entry.ID, entry.BalanceAfter)
	return nil
}
