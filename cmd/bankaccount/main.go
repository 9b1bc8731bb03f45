package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/Renal37/bankaccount/internal/database"
	"github.com/Renal37/bankaccount/internal/deployment"
	"github.com/Renal37/bankaccount/internal/events"
	router "github.com/Renal37/bankaccount/internal/http"
	"github.com/Renal37/bankaccount/internal/ledger"
	"github.com/Renal37/bankaccount/internal/logger"
	"github.com/Renal37/bankaccount/internal/memory"
	"github.com/Renal37/bankaccount/internal/payout"
	"github.com/Renal37/bankaccount/internal/services"
	"github.com/Renal37/bankaccount/internal/utils"
)

const notificationQueueCapacity = 1000

// valueTransfer moves value in and out of the ledger.
type valueTransfer interface {
	ledger.Transferer
	ledger.Collector
}

func main() {
	config := NewConfig()

	if err := config.Validate(); err != nil {
		log.Fatalf("Configuration is invalid: %s", err)
	}

	if err := logger.Initialize(config.logLevel, config.env); err != nil {
		log.Fatalf("Logger wasn't initialized due to %s", err)
	}
	defer logger.Log.Sync()

	ctx, stop := utils.TerminationContext(context.Background())
	defer stop()

	if err := run(ctx, config); err != nil {
		logger.Log.Error("server stopped with errors", zap.Error(err))
		log.Fatalf("Server stopped with errors: %s", err)
	}
}

func run(ctx context.Context, config Config) error {
	var (
		store   ledger.Store
		storage services.AuthStorage
	)

	if config.dsn != "" {
		db, err := database.New(ctx, config.dsn)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.RunMigrations(); err != nil {
			return err
		}
		store, storage = db, db
	} else {
		logger.Log.Warn("DATABASE_URI is not set, the ledger is kept in memory")
		store, storage = memory.New(), memory.NewUsers()
	}

	var funds valueTransfer
	if config.payoutEndpoint != "" {
		funds = payout.NewClient(config.payoutEndpoint)
	} else {
		logger.Log.Warn("PAYOUT_ADDRESS is not set, funds are kept in an in-memory wallet",
			zap.Uint64("openingBalance", config.openingBalance),
		)
		funds = payout.NewWallet(payout.WithOpeningBalance(config.openingBalance))
	}

	var sinks []ledger.Publisher
	if config.webhookURL != "" {
		// The queue outlives ctx so that events committed before shutdown are still delivered.
		queue := services.NewJobQueueService(context.Background(), notificationQueueCapacity, 1)
		defer queue.Shutdown()

		sinks = append(sinks, services.NewNotifier(queue, config.webhookURL))
	}

	eventLog := events.NewLog(events.DefaultBuffer, sinks...)
	defer eventLog.Close()

	descriptor := deployment.New("http://"+config.endpoint, config.operator)
	if config.deploymentPath != "" {
		if err := descriptor.Write(config.deploymentPath); err != nil {
			return err
		}
		logger.Log.Info("deployment descriptor written", zap.String("path", config.deploymentPath))
	}

	engine := ledger.New(store, funds, eventLog)

	return router.New(
		router.Config{Endpoint: config.endpoint},
		services.NewAuthService(storage),
		services.NewJWTService(config.authSecretKey),
		engine,
		services.NewDepositService(engine, funds),
		eventLog,
		descriptor,
	).Run(ctx)
}
