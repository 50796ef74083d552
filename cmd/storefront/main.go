package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hannalindberg/atelje-backend/internal/accounts"
	"github.com/hannalindberg/atelje-backend/internal/catalog"
	"github.com/hannalindberg/atelje-backend/internal/config"
	"github.com/hannalindberg/atelje-backend/internal/content"
	"github.com/hannalindberg/atelje-backend/internal/messaging"
	"github.com/hannalindberg/atelje-backend/internal/orders"
	"github.com/hannalindberg/atelje-backend/internal/reviews"
	"github.com/hannalindberg/atelje-backend/internal/telemetry"
	"github.com/hannalindberg/atelje-backend/internal/wishlist"
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
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET environment variable is required")
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

	if _, err := db.Exec("SET search_path TO shop"); err != nil {
		logger.Error("failed to set search_path", "error", err)
		os.Exit(1)
	}

	var producer *messaging.Producer
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")
		producer = messaging.NewProducer(brokers, messaging.TopicOrderNotifications)
		defer func() { _ = producer.Close() }()
	}

	checkoutMetrics, err := telemetry.NewCheckoutMetrics()
	if err != nil {
		logger.Error("failed to create checkout metrics", "error", err)
		os.Exit(1)
	}

	pricing := config.PricingFromEnv()

	profileRepo := accounts.NewProfileRepository(db)
	auth := accounts.NewAuth(jwtSecret, profileRepo, logger)

	catalogRepo := catalog.NewRepository(db)
	orderRepo := orders.NewOrderRepository(db)
	reviewRepo := reviews.NewRepository(db)
	wishlistRepo := wishlist.NewRepository(db)
	contentRepo := content.NewRepository(db)

	var dispatcher orders.Dispatcher = orders.NewNotificationDispatcher(nil, logger)
	if producer != nil {
		dispatcher = orders.NewNotificationDispatcher(producer, logger)
	}

	catalogHandler := catalog.NewHandler(catalogRepo, logger)
	orderHandler := orders.NewHandler(orderRepo, catalogRepo, dispatcher, pricing, checkoutMetrics, logger)
	reviewHandler := reviews.NewHandler(reviewRepo, logger)
	wishlistHandler := wishlist.NewHandler(wishlistRepo, logger)
	contentHandler := content.NewHandler(contentRepo, logger)
	accountHandler := accounts.NewHandler(profileRepo, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", telemetry.WithHTTPRoute(catalogHandler.HandleList))
	mux.HandleFunc("GET /products/{id}", telemetry.WithHTTPRoute(catalogHandler.HandleGet))
	mux.HandleFunc("GET /products/{id}/reviews", telemetry.WithHTTPRoute(reviewHandler.HandleList))
	mux.HandleFunc("POST /products/{id}/reviews", telemetry.WithHTTPRoute(auth.Optional(reviewHandler.HandleCreate)))
	mux.HandleFunc("GET /banners", telemetry.WithHTTPRoute(contentHandler.HandleListActive))
	mux.HandleFunc("POST /checkout", telemetry.WithHTTPRoute(auth.Optional(orderHandler.HandleCheckout)))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(auth.Optional(orderHandler.HandleGet)))
	mux.HandleFunc("GET /account/orders", telemetry.WithHTTPRoute(auth.RequireUser(orderHandler.HandleListMine)))
	mux.HandleFunc("GET /account/profile", telemetry.WithHTTPRoute(auth.RequireUser(accountHandler.HandleGetProfile)))
	mux.HandleFunc("PUT /account/profile", telemetry.WithHTTPRoute(auth.RequireUser(accountHandler.HandleUpdateProfile)))
	mux.HandleFunc("GET /account/wishlist", telemetry.WithHTTPRoute(auth.RequireUser(wishlistHandler.HandleList)))
	mux.HandleFunc("PUT /account/wishlist/{productId}", telemetry.WithHTTPRoute(auth.RequireUser(wishlistHandler.HandleAdd)))
	mux.HandleFunc("DELETE /account/wishlist/{productId}", telemetry.WithHTTPRoute(auth.RequireUser(wishlistHandler.HandleRemove)))
	mux.Handle("GET /metrics", metricsHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "storefront",
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
