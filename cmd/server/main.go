package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/harborbank/bankcore/internal/adapter/http"
	"github.com/harborbank/bankcore/internal/adapter/http/handler"
	"github.com/harborbank/bankcore/internal/adapter/http/middleware"
	postgresRepo "github.com/harborbank/bankcore/internal/adapter/repository/postgres"
	redisRepo "github.com/harborbank/bankcore/internal/adapter/repository/redis"
	"github.com/harborbank/bankcore/internal/infrastructure/config"
	"github.com/harborbank/bankcore/internal/infrastructure/logger"
	"github.com/harborbank/bankcore/internal/infrastructure/metrics"
	"github.com/harborbank/bankcore/internal/infrastructure/postgres"
	"github.com/harborbank/bankcore/internal/infrastructure/redis"
	"github.com/harborbank/bankcore/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	idempotencyRepo := postgresRepo.NewIdempotencyRepository(pool)
	beneficiaryRepo := postgresRepo.NewBeneficiaryRepository(pool)
	retrier := postgresRepo.NewRetrier(appLogger)
	idGen := postgresRepo.NewULIDGenerator()

	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	engineMetrics := metrics.New(prometheus.DefaultRegisterer)

	// Initialize use cases
	transferUC := usecase.NewTransferUseCase(
		txManager,
		accountRepo,
		transactionRepo,
		idempotencyRepo,
		retrier,
		idGen,
		engineMetrics,
		appLogger,
	)
	accountUC := usecase.NewAccountUseCase(accountRepo, cache)
	transactionUC := usecase.NewTransactionUseCase(transactionRepo, accountRepo)
	beneficiaryUC := usecase.NewBeneficiaryUseCase(beneficiaryRepo, idGen)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountUC)
	transactionHandler := handler.NewTransactionHandler(transferUC, transactionUC)
	beneficiaryHandler := handler.NewBeneficiaryHandler(beneficiaryUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Rate limiter with periodic cleanup of idle per-IP buckets
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rateLimiter.CleanupLimiters()
			case <-cleanupDone:
				return
			}
		}
	}()

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     accountHandler,
		TransactionHandler: transactionHandler,
		BeneficiaryHandler: beneficiaryHandler,
		HealthHandler:      healthHandler,
		IdempotencyStore:   idempotencyStore,
		RateLimiter:        rateLimiter,
		Logger:             appLogger,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	close(cleanupDone)

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
