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
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/hannalindberg/atelje-backend/internal/accounts"
	"github.com/hannalindberg/atelje-backend/internal/catalog"
	"github.com/hannalindberg/atelje-backend/internal/content"
	"github.com/hannalindberg/atelje-backend/internal/messaging"
	"github.com/hannalindberg/atelje-backend/internal/orders"
	"github.com/hannalindberg/atelje-backend/internal/reviews"
	"github.com/hannalindberg/atelje-backend/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "admin", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("admin", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		logger.Error("failed to start runtime metrics", "error", err)
		os.Exit(1)
	}

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

	profileRepo := accounts.NewProfileRepository(db)
	auth := accounts.NewAuth(jwtSecret, profileRepo, logger)

	orderRepo := orders.NewOrderRepository(db)

	dispatcher := orders.NewNotificationDispatcher(nil, logger)
	if producer != nil {
		dispatcher = orders.NewNotificationDispatcher(producer, logger)
	}
	engine := orders.NewEngine(orderRepo, dispatcher, logger)

	orderHandler := orders.NewAdminHandler(orderRepo, engine, logger)
	catalogHandler := catalog.NewAdminHandler(catalog.NewRepository(db), logger)
	reviewHandler := reviews.NewAdminHandler(reviews.NewRepository(db), logger)
	contentHandler := content.NewHandler(content.NewRepository(db), logger)

	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return telemetry.WithHTTPRoute(auth.RequireAdmin(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders", admin(orderHandler.HandleList))
	mux.HandleFunc("GET /orders/{id}", admin(orderHandler.HandleGet))
	mux.HandleFunc("POST /orders/{id}/transition", admin(orderHandler.HandleTransition))
	mux.HandleFunc("PUT /orders/{id}/tracking", admin(orderHandler.HandleSaveTracking))
	mux.HandleFunc("PUT /orders/{id}/notes", admin(orderHandler.HandleSaveNotes))

	mux.HandleFunc("GET /products", admin(catalogHandler.HandleList))
	mux.HandleFunc("POST /products", admin(catalogHandler.HandleCreate))
	mux.HandleFunc("GET /products/{id}", admin(catalogHandler.HandleGet))
	mux.HandleFunc("PUT /products/{id}", admin(catalogHandler.HandleUpdate))
	mux.HandleFunc("DELETE /products/{id}", admin(catalogHandler.HandleDelete))
	mux.HandleFunc("POST /products/{id}/variants", admin(catalogHandler.HandleCreateVariant))
	mux.HandleFunc("PUT /variants/{variantId}", admin(catalogHandler.HandleUpdateVariant))
	mux.HandleFunc("DELETE /variants/{variantId}", admin(catalogHandler.HandleDeleteVariant))
	mux.HandleFunc("POST /products/{id}/images", admin(catalogHandler.HandleCreateImage))
	mux.HandleFunc("DELETE /images/{imageId}", admin(catalogHandler.HandleDeleteImage))

	mux.HandleFunc("GET /reviews/pending", admin(reviewHandler.HandleListPending))
	mux.HandleFunc("POST /reviews/{id}/moderate", admin(reviewHandler.HandleModerate))

	mux.HandleFunc("GET /banners", admin(contentHandler.HandleListAll))
	mux.HandleFunc("POST /banners", admin(contentHandler.HandleCreate))
	mux.HandleFunc("PUT /banners/{id}", admin(contentHandler.HandleUpdate))
	mux.HandleFunc("DELETE /banners/{id}", admin(contentHandler.HandleDelete))

	mux.Handle("GET /metrics", metricsHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8082"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting admin service", "port", port)
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
