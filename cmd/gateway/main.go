package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rmcampos/storefront/internal/gateway"
	"github.com/rmcampos/storefront/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "gateway", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	storefrontURL := os.Getenv("STOREFRONT_SERVICE_URL")
	if storefrontURL == "" {
		logger.Error("STOREFRONT_SERVICE_URL is required")
		os.Exit(1)
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	handler := gateway.NewHandler(gateway.NewServiceProxy(storefrontURL, httpClient), logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /session", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("DELETE /session", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("GET /cart", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("POST /cart/items", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("DELETE /cart/items/{lineId}", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("POST /checkout", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("GET /stock", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("GET /stock/{productId}", telemetry.WithHTTPRoute(handler.HandleStorefront))

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "gateway",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting gateway service", "port", port)
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
