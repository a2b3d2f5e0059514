package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/rmcampos/storefront/internal/cart"
	"github.com/rmcampos/storefront/internal/catalog"
	"github.com/rmcampos/storefront/internal/checkout"
	"github.com/rmcampos/storefront/internal/identity"
	"github.com/rmcampos/storefront/internal/inventory"
	"github.com/rmcampos/storefront/internal/messaging"
	"github.com/rmcampos/storefront/internal/orders"
	"github.com/rmcampos/storefront/internal/pricing"
	"github.com/rmcampos/storefront/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "storefront", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("storefront", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter provider", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime instrumentation", "error", err)
		os.Exit(1)
	}

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
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

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		logger.Error("REDIS_URL environment variable is required")
		os.Exit(1)
	}

	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Error("failed to parse REDIS_URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	sessions := identity.NewRedisSessionStore(redisClient, 24*time.Hour)

	var placed, failed *messaging.Producer
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")
		placed = messaging.NewProducer(brokers, messaging.TopicOrderPlaced)
		defer func() { _ = placed.Close() }()
		failed = messaging.NewProducer(brokers, messaging.TopicCheckoutFailed)
		defer func() { _ = failed.Close() }()
	}

	products := catalog.NewProductRepository(db)
	ledger := inventory.NewLedger(db)
	cartStore := cart.NewStore(db, products)
	orderRepo := orders.NewRepository(db)
	calculator := pricing.NewCalculator(pricingConfig(logger))
	attempts := checkout.NewPostgresAttemptLog(db)

	saga, err := checkout.NewSaga(sessions, cartStore, ledger, calculator, orderRepo, attempts, eventPublisher(placed), eventPublisher(failed), logger)
	if err != nil {
		logger.Error("failed to create checkout saga", "error", err)
		os.Exit(1)
	}

	checkoutHandler := checkout.NewHandler(saga, logger)
	cartHandler := cart.NewHandler(cartStore, sessions, logger)
	orderHandler := orders.NewHandler(orderRepo, sessions, logger)
	stockHandler := inventory.NewHandler(ledger, products, logger)
	sessionHandler := identity.NewHandler(sessions, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /session", sessionHandler.HandleStartSession)
	mux.HandleFunc("DELETE /session", sessionHandler.HandleEndSession)
	mux.HandleFunc("GET /cart", cartHandler.HandleGetCart)
	mux.HandleFunc("POST /cart/items", cartHandler.HandleAddLine)
	mux.HandleFunc("DELETE /cart/items/{lineId}", cartHandler.HandleRemoveLine)
	mux.HandleFunc("POST /checkout", checkoutHandler.HandleCheckout)
	mux.HandleFunc("GET /orders", orderHandler.HandleList)
	mux.HandleFunc("GET /orders/{id}", orderHandler.HandleGet)
	mux.HandleFunc("GET /stock", stockHandler.HandleListStock)
	mux.HandleFunc("GET /stock/{productId}", stockHandler.HandleGetStock)
	mux.Handle("GET /metrics", metricsHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting storefront service", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// eventPublisher keeps a nil *messaging.Producer from turning into a
// non-nil interface inside the saga.
func eventPublisher(p *messaging.Producer) checkout.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

func pricingConfig(logger *slog.Logger) pricing.Config {
	cfg := pricing.DefaultConfig()

	if v := os.Getenv("FREE_SHIPPING_THRESHOLD_CENTS"); v != "" {
		cfg.FreeShippingThreshold = parseInt64(v, "FREE_SHIPPING_THRESHOLD_CENTS", logger)
	}
	if v := os.Getenv("FLAT_SHIPPING_FEE_CENTS"); v != "" {
		cfg.FlatShippingFee = parseInt64(v, "FLAT_SHIPPING_FEE_CENTS", logger)
	}
	if v := os.Getenv("TAX_RATE_BASIS_POINTS"); v != "" {
		cfg.TaxRateBasisPoints = parseInt64(v, "TAX_RATE_BASIS_POINTS", logger)
	}

	return cfg
}

func parseInt64(value, name string, logger *slog.Logger) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		logger.Error("invalid value for "+name, "value", value)
		os.Exit(1)
	}
	return n
}
