package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rupeeflow/bbps-backend/internal/bbps"
	"github.com/rupeeflow/bbps-backend/internal/commission"
	"github.com/rupeeflow/bbps-backend/internal/config"
	"github.com/rupeeflow/bbps-backend/internal/data/mongo"
	"github.com/rupeeflow/bbps-backend/internal/data/postgres"
	"github.com/rupeeflow/bbps-backend/internal/ledger"
	"github.com/rupeeflow/bbps-backend/internal/logger"
	"github.com/rupeeflow/bbps-backend/internal/orchestrator"
	"github.com/rupeeflow/bbps-backend/internal/platform/cache"
	"github.com/rupeeflow/bbps-backend/internal/platform/messaging"
	"github.com/rupeeflow/bbps-backend/internal/platform/persistence"
	"github.com/rupeeflow/bbps-backend/internal/server"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("server")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	// Data stores. Postgres runs migrations on startup.
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	redisClient, err := cache.NewRedisClient(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}

	auditPublisher, err := messaging.NewKafkaAuditPublisher(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize Kafka audit publisher", "error", err)
		os.Exit(1)
	}

	// Repositories
	walletRepo := postgres.NewWalletRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	userRepo := postgres.NewUserRepository(log, postgresDB)
	settingRepo := postgres.NewCommissionSettingRepository(log, postgresDB)
	earningRepo := postgres.NewCommissionEarningRepository(log, postgresDB)
	providerLogRepo := mongo.NewProviderLogRepository(log, mongoDB.Database())

	// Money-movement core
	ledgerStore := ledger.NewStore(log, postgresDB, walletRepo, &cfg.Ledger)
	resolver := commission.NewResolver(log, userRepo, settingRepo)
	engine := commission.NewEngine(log, resolver, postgresDB, ledgerStore, earningRepo)

	// Provider gateway with the Mongo call log behind it
	recorder := mongo.NewGatewayRecorder(log, providerLogRepo)
	gateway := bbps.NewHTTPGateway(log, &cfg.BBPS, recorder)

	rateLimiter := orchestrator.NewRedisRateLimiter(log, redisClient, &cfg.RateLimit)

	workerPool, err := orchestrator.NewWorkerPool(log, &cfg.WorkerPool)
	if err != nil {
		log.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}

	processor := orchestrator.New(log, orchestrator.Dependencies{
		Gateway:      gateway,
		Ledger:       ledgerStore,
		Engine:       engine,
		Transactions: transactionRepo,
		Users:        userRepo,
		RateLimiter:  rateLimiter,
		Audit:        auditPublisher,
		BBPS:         &cfg.BBPS,
	}, workerPool)

	refundService := orchestrator.NewRefundService(log, ledgerStore, transactionRepo, auditPublisher)

	srv := server.NewServer(log, cfg, processor, ledgerStore, transactionRepo, refundService)
	log.Info("REST server initialized")

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := srv.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	if err = srv.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	workerPool.Shutdown()

	if err = auditPublisher.Close(); err != nil {
		log.Error("Error closing Kafka audit publisher", "error", err)
	}

	if err = redisClient.Close(); err != nil {
		log.Error("Error closing Redis client", "error", err)
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	postgresDB.Close()

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	log.Info("Server shutdown completed")
}
