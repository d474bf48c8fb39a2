package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/midas-vault/midas-vault/internal/api/http"
	"github.com/midas-vault/midas-vault/internal/application/admin"
	"github.com/midas-vault/midas-vault/internal/application/audit"
	"github.com/midas-vault/midas-vault/internal/application/auth"
	"github.com/midas-vault/midas-vault/internal/application/exchange"
	"github.com/midas-vault/midas-vault/internal/application/maintenance"
	"github.com/midas-vault/midas-vault/internal/application/product"
	"github.com/midas-vault/midas-vault/internal/application/review"
	"github.com/midas-vault/midas-vault/internal/application/user"
	"github.com/midas-vault/midas-vault/internal/config"
	domainAudit "github.com/midas-vault/midas-vault/internal/domain/audit"
	"github.com/midas-vault/midas-vault/internal/domain/barter"
	"github.com/midas-vault/midas-vault/internal/domain/ledger"
	domainProduct "github.com/midas-vault/midas-vault/internal/domain/product"
	"github.com/midas-vault/midas-vault/internal/domain/purchase"
	domainReview "github.com/midas-vault/midas-vault/internal/domain/review"
	"github.com/midas-vault/midas-vault/internal/domain/stats"
	"github.com/midas-vault/midas-vault/internal/domain/tradein"
	domainUser "github.com/midas-vault/midas-vault/internal/domain/user"
	"github.com/midas-vault/midas-vault/internal/infrastructure/cache"
	"github.com/midas-vault/midas-vault/internal/infrastructure/errtrack"
	"github.com/midas-vault/midas-vault/internal/infrastructure/memory"
	"github.com/midas-vault/midas-vault/internal/infrastructure/metrics"
	"github.com/midas-vault/midas-vault/internal/infrastructure/postgres"
	"github.com/midas-vault/midas-vault/internal/infrastructure/sse"
)

// backend is the storage surface shared by the postgres and memory drivers.
type backend struct {
	store     ledger.Store
	users     domainUser.Repository
	products  domainProduct.Repository
	purchases purchase.Repository
	barters   barter.Repository
	tradeIns  tradein.Repository
	reviews   domainReview.Repository
	audit     domainAudit.Repository
	stats     stats.Repository
	ready     func(ctx context.Context) error
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", "midas-vault").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("storage init failed")
	}
	defer db.close()

	// infrastructure
	tracker, err := errtrack.Init(errtrack.Options{DSN: cfg.SentryDSN, Environment: cfg.SentryEnvironment})
	if err != nil {
		logger.Fatal().Err(err).Msg("sentry init failed")
	}
	defer tracker.Flush(2 * time.Second)

	registry := metrics.New(cfg.MetricsEnabled)
	sseHub := sse.NewHub(logger)
	defer sseHub.Stop()

	var statsCache admin.Cache
	if cfg.RedisAddr != "" {
		rc, err := cache.Connect(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, stats are not cached")
		} else {
			defer rc.Close()
			statsCache = rc
		}
	}

	// services
	auditSvc := audit.NewService(db.audit, logger, cfg.AuditSigningKey)
	defer auditSvc.Wait()
	authSvc := auth.NewService(db.users, cfg.JWTSecret, cfg.JWTTTL, auditSvc, logger)
	userSvc := user.NewService(db.users, auditSvc, logger)
	productSvc := product.NewService(db.products, db.store, auditSvc, sseHub, logger)
	exchangeSvc := exchange.NewService(db.store, exchange.Repositories{
		Products:  db.products,
		Users:     db.users,
		Purchases: db.purchases,
		Barters:   db.barters,
		TradeIns:  db.tradeIns,
	}, auditSvc, sseHub, registry, logger)
	reviewSvc := review.NewService(db.reviews, db.purchases, db.barters, db.tradeIns, auditSvc, sseHub, logger)
	adminSvc := admin.NewService(db.stats, auditSvc, statsCache, cfg.StatsCacheTTL, logger)
	maintenanceSvc := maintenance.NewService(db.barters, cfg.BarterRetention, auditSvc, registry, tracker, logger)

	// API server
	apiServer := httpapi.NewServer(httpapi.Services{
		Auth:     authSvc,
		Users:    userSvc,
		Products: productSvc,
		Exchange: exchangeSvc,
		Reviews:  reviewSvc,
		Admin:    adminSvc,
		Audit:    auditSvc,
	}, httpapi.Options{
		Hub:            sseHub,
		Metrics:        registry,
		Tracker:        tracker,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Ready:          db.ready,
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// background loops
	go maintenanceSvc.Run(ctx, cfg.PurgeInterval)
	go apiServer.RunJanitor(ctx, time.Minute)

	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Str("driver", cfg.StoreDriver).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Warn().Err(err).Msg("http shutdown incomplete")
	}
}

func openBackend(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*backend, error) {
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn().Msg("using in-memory store, data is lost on restart")
		s := memory.NewStore()
		return &backend{
			store:     s,
			users:     s.Users(),
			products:  s.Products(),
			purchases: s.Purchases(),
			barters:   s.Barters(),
			tradeIns:  s.TradeIns(),
			reviews:   s.Reviews(),
			audit:     s.Audit(),
			stats:     s.Stats(),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{})
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, pool, os.DirFS(cfg.MigrationsDir)); err != nil {
		pool.Close()
		return nil, err
	}
	s := postgres.NewStore(pool)
	return &backend{
		store:     s,
		users:     s.Users(),
		products:  s.Products(),
		purchases: s.Purchases(),
		barters:   s.Barters(),
		tradeIns:  s.TradeIns(),
		reviews:   s.Reviews(),
		audit:     s.Audit(),
		stats:     s.Stats(),
		ready:     pool.Ping,
		close:     pool.Close,
	}, nil
}
