package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jetwallet/config"
	httpHandler "jetwallet/internal/adapter/http/handler"
	"jetwallet/internal/adapter/http/middleware"
	"jetwallet/internal/adapter/market"
	"jetwallet/internal/adapter/messaging/nats"
	"jetwallet/internal/adapter/metrics"
	"jetwallet/internal/adapter/scheduler"
	pgStorage "jetwallet/internal/adapter/storage/postgres"
	redisStorage "jetwallet/internal/adapter/storage/redis"
	"jetwallet/internal/core/engine"
	"jetwallet/internal/core/ports"
	"jetwallet/internal/service"
	"jetwallet/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("JW_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting JetWallet")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	if cfg.Database.AutoMigrate {
		if err := pgStorage.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply schema")
		}
		log.Info().Msg("Schema applied")
	}

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	healthCheckers := []ports.HealthChecker{
		pgStorage.NewHealthCheck(pool),
		redisStorage.NewHealthCheck(rdb),
	}

	// Metrics
	var (
		promMetrics *metrics.Metrics
		svcMetrics  ports.Metrics
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		promMetrics = metrics.New(reg)
		svcMetrics = promMetrics
	}

	// Optional NATS JetStream event bus
	var publisher ports.EventPublisher
	if cfg.NATS.Enabled {
		conn, js, err := nats.Connect(cfg.NATS.URL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		defer conn.Drain()
		if err := nats.EnsureStream(ctx, js, cfg.NATS.Stream, cfg.NATS.SubjectPrefix); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure NATS stream")
		}
		publisher = nats.NewPublisher(js, cfg.NATS.SubjectPrefix, log)
		healthCheckers = append(healthCheckers, nats.NewHealthCheck(conn))
		log.Info().Str("stream", cfg.NATS.Stream).Msg("NATS JetStream connected")
	}

	// Initialize repositories
	userRepo := pgStorage.NewUserRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	alertRepo := pgStorage.NewAlertRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	blocklist := redisStorage.NewTokenBlocklist(rdb)
	priceCache := redisStorage.NewPriceCache(rdb)

	// Initialize core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	auditSvc := service.NewAuditService(auditRepo, log)

	// Price oracle
	priceSvc := service.NewPriceService(priceProviders(cfg.Prices, log), priceCache, svcMetrics, cfg.Prices.CacheTTL, log)
	if err := priceSvc.Warm(ctx); err != nil {
		log.Warn().Err(err).Msg("Price warm-up failed, serving fallback prices")
	}

	// Initialize business services
	eng := engine.New(engine.WithMinimumValue(cfg.Wallet.MinimumUSD))
	walletSvc := service.NewWalletService(
		eng,
		walletRepo,
		txRepo,
		userRepo,
		idempotencyRepo,
		idempotencyCache,
		transactor,
		priceSvc,
		publisher,
		svcMetrics,
		auditSvc,
		log,
	)
	authSvc := service.NewAuthService(userRepo, walletRepo, transactor, hashSvc, encSvc, tokenSvc, blocklist, auditSvc, log)
	userSvc := service.NewUserService(userRepo, walletRepo, transactor, hashSvc, encSvc, tokenSvc, auditSvc, log)
	profileSvc := service.NewProfileService(userRepo, auditSvc, log)
	alertSvc := service.NewAlertService(alertRepo, publisher, svcMetrics, auditSvc, log)
	reportingSvc := service.NewReportingService(txRepo, walletRepo, priceSvc)

	if cfg.Admin.Password != "" {
		if _, err := userSvc.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed administrator")
		}
		log.Info().Str("email", cfg.Admin.Email).Msg("Administrator account ready")
	}

	// Background price refresh
	sched := scheduler.New(log)
	refreshJob := scheduler.NewPriceRefreshJob(priceSvc, alertSvc, scheduler.DefaultRefreshTimeout, log)
	if err := sched.AddJob(cfg.Prices.RefreshSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule price refresh")
	}
	sched.Start()
	defer sched.Stop()

	// Load OpenAPI spec for Swagger UI
	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	var limiter middleware.Limiter
	if cfg.RateLimit.Enabled {
		limiter = redisStorage.NewRateLimitStore(rdb)
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		WalletSvc:      walletSvc,
		ReportingSvc:   reportingSvc,
		ProfileSvc:     profileSvc,
		AlertSvc:       alertSvc,
		UserSvc:        userSvc,
		PriceSvc:       priceSvc,
		TokenSvc:       tokenSvc,
		Blocklist:      blocklist,
		RateLimiter:    limiter,
		HealthCheckers: healthCheckers,
		Metrics:        promMetrics,
		MetricsPath:    cfg.Metrics.Path,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// priceProviders builds the upstream chain in priority order, skipping
// providers whose URL is empty.
func priceProviders(cfg config.PricesConfig, log zerolog.Logger) []ports.PriceProvider {
	var providers []ports.PriceProvider
	if cfg.CoinGeckoURL != "" {
		providers = append(providers, market.NewCoinGecko(cfg.CoinGeckoURL, cfg.Timeout, log))
	}
	if cfg.CoinCapURL != "" {
		providers = append(providers, market.NewCoinCap(cfg.CoinCapURL, cfg.Timeout, log))
	}
	if cfg.CryptoCompareURL != "" {
		providers = append(providers, market.NewCryptoCompare(cfg.CryptoCompareURL, cfg.Timeout, log))
	}
	return providers
}
