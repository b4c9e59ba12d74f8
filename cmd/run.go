package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"raffler/application"
	"raffler/config"
	"raffler/database"
	"raffler/domain/entities"
	"raffler/domain/interfaces"
	"raffler/domain/services"
	"raffler/infrastructure"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting raffler...")

	// Load configuration
	cfg := config.Get()

	entryFee, err := entities.ParseAmount(cfg.EntryFee)
	if err != nil {
		return fmt.Errorf("invalid ENTRY_FEE: %w", err)
	}

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize NATS event publishing
	log.Println("Connecting to NATS...")
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	eventPublisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
	if err := eventPublisher.EnsureDomainEventStream(); err != nil {
		return fmt.Errorf("failed to ensure domain event stream: %w", err)
	}
	log.Println("NATS event publishing initialized successfully")

	// Initialize unit of work factory for the round archive
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)

	// Initialize ports: treasury vault, randomness source, minter
	vault := infrastructure.NewVault()

	var randomSource interfaces.RandomSource
	if cfg.RandomSeed != "" {
		log.Println("Using seeded (provably-fair) randomness source")
		randomSource = infrastructure.NewSeededRandomSource([]byte(cfg.RandomSeed))
	} else {
		randomSource = infrastructure.NewCryptoRandomSource()
	}

	minter := infrastructure.NewEventPublishingMinter(eventPublisher)

	// Initialize the raffle engine
	assigner, err := services.NewPrizeAssigner(randomSource, entities.TierTable{
		CommonCutoff:    cfg.CommonCutoff,
		RareCutoff:      cfg.RareCutoff,
		LegendaryCutoff: cfg.LegendaryCutoff,
	})
	if err != nil {
		return fmt.Errorf("failed to create prize assigner: %w", err)
	}

	engine, err := services.NewRaffleService(
		services.RaffleConfig{
			EntryFee:      entryFee,
			RoundDuration: cfg.RoundDuration,
			FeeRecipient:  entities.AccountID(cfg.FeeRecipient),
			PrizePercent:  cfg.PrizePercent,
			FeePercent:    cfg.FeePercent,
		},
		vault,
		randomSource,
		assigner,
		minter,
		eventPublisher,
	)
	if err != nil {
		return fmt.Errorf("failed to create raffle engine: %w", err)
	}
	log.Println("Raffle engine initialized successfully")

	// Start the background workers
	drawWorker := application.NewDrawWorker(engine, uowFactory, cfg.DrawRetryInterval)
	stopDrawWorker := drawWorker.Start(ctx)

	withdrawalService := application.NewFeeWithdrawalService(engine, uowFactory)
	stopFeeSweep := withdrawalService.StartSweeping(ctx, cfg.FeeSweepInterval)

	// Wait for context cancellation
	log.Printf("Raffler is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down raffler...")
	stopDrawWorker()
	stopFeeSweep()

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
