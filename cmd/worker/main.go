package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/rmcampos/storefront/internal/cart"
	"github.com/rmcampos/storefront/internal/catalog"
	"github.com/rmcampos/storefront/internal/inventory"
	"github.com/rmcampos/storefront/internal/messaging"
	"github.com/rmcampos/storefront/internal/orders"
	"github.com/rmcampos/storefront/internal/telemetry"
	"github.com/rmcampos/storefront/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers == "" {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	emailServiceURL := os.Getenv("EMAIL_SERVICE_URL")
	if emailServiceURL == "" {
		logger.Error("EMAIL_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	brokers := strings.Split(kafkaBrokers, ",")

	placedConsumer := messaging.NewConsumer(brokers, messaging.TopicOrderPlaced, "receipt-worker")
	defer func() { _ = placedConsumer.Close() }()

	failedConsumer := messaging.NewConsumer(brokers, messaging.TopicCheckoutFailed, "reconcile-worker")
	defer func() { _ = failedConsumer.Close() }()

	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}

	receiptHandler := worker.NewReceiptHandler(emailServiceURL, httpClient, logger)

	products := catalog.NewProductRepository(db)
	reconcileHandler := worker.NewReconcileHandler(
		inventory.NewLedger(db),
		orders.NewRepository(db),
		cart.NewStore(db, products),
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting checkout worker", "brokers", brokers)

	errCh := make(chan error, 2)
	go func() {
		errCh <- placedConsumer.Consume(ctx, receiptHandler.Handle)
	}()
	go func() {
		errCh <- failedConsumer.Consume(ctx, reconcileHandler.Handle)
	}()

	if err := <-errCh; err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			logger.Info("consumers stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
