package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"pagseguro-payment-api/cache"
	"pagseguro-payment-api/config"
	"pagseguro-payment-api/database"
	"pagseguro-payment-api/handlers"
	"pagseguro-payment-api/logger"
	"pagseguro-payment-api/middleware"
	"pagseguro-payment-api/services/auth"
	"pagseguro-payment-api/services/payment"
	"pagseguro-payment-api/services/payment/pagseguro"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if err := payment.ValidateGatewayConfig(cfg.PagSeguro.BaseURL, cfg.PagSeguro.Token); err != nil {
		return err
	}
	if cfg.PagSeguro.PixExpiration == "" {
		log.Warn("PIX_EXPIRATION_DATE not set, PIX payments will be rejected")
	}

	gateway, err := pagseguro.NewClient(cfg.PagSeguro.BaseURL, cfg.PagSeguro.Token,
		pagseguro.WithTimeout(cfg.PagSeguro.Timeout),
		pagseguro.WithLogger(log.Named("pagseguro")))
	if err != nil {
		return fmt.Errorf("failed to create gateway client: %w", err)
	}

	paymentService := payment.NewService(gateway, payment.Settings{
		PixExpiration: cfg.PagSeguro.PixExpiration,
	}, log.Named("payment"))

	jwtService, err := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to create jwt service: %w", err)
	}

	redisClient, err := cache.NewRedisClient(context.Background(), cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	checks := map[string]handlers.HealthCheck{
		"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}

	// The ledger is optional; handlers get a nil interface when it is off.
	var ledger handlers.OrderLedger
	if cfg.DatabaseEnabled() {
		db, err := database.NewConnection(cfg.Database, log.Named("database"))
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = db.EnsureSchema(ctx)
		cancel()
		if err != nil {
			return err
		}

		ledger = db
		checks["database"] = db.Ping
		log.Info("Successfully connected to database")
	} else {
		log.Warn("DB_HOST not set, order ledger disabled")
	}

	paymentHandler, err := handlers.NewPaymentHandler(paymentService, ledger,
		cache.NewReferenceLock(redisClient, cache.DefaultLockTTL), log.Named("handlers"))
	if err != nil {
		return err
	}
	authHandler := handlers.NewAuthHandler(jwtService, cfg.Auth.InternalSecret, log.Named("auth"))
	healthHandler := handlers.NewHealthHandler(checks)
	rateLimiter := middleware.NewRateLimiter(redisClient, log.Named("rate_limit"))

	router := mux.NewRouter()
	router.Use(middleware.CORS)
	router.Use(middleware.Logging(log.Named("http")))

	router.Handle("/auth/token", rateLimiter.Middleware(
		authHandler.RequireInternalSecret(authHandler.IssueToken))).Methods("POST", "OPTIONS")
	router.Handle("/api/health", rateLimiter.Middleware(http.HandlerFunc(healthHandler.Health))).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware(jwtService, log.Named("auth")))
	api.Use(middleware.RequireScope(auth.ScopePayments))
	api.Use(rateLimiter.Middleware)

	api.HandleFunc("/orders", paymentHandler.CreateOrder).Methods("POST", "OPTIONS")
	api.HandleFunc("/orders/{reference_id}", paymentHandler.GetOrder).Methods("GET", "OPTIONS")
	api.HandleFunc("/payments", paymentHandler.ProcessPayment).Methods("POST", "OPTIONS")
	api.HandleFunc("/payment-methods/{text}", paymentHandler.NormalizeMethod).Methods("GET", "OPTIONS")

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   cfg.PagSeguro.Timeout + 15*time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case <-stop:
	}

	log.Info("Shutdown signal received, gracefully shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited properly")
	return nil
}
