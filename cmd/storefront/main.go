package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"momo-storefront/config"
	"momo-storefront/internal/delivery/http/middleware"
	v1 "momo-storefront/internal/delivery/http/v1"
	"momo-storefront/internal/domain"
	"momo-storefront/internal/infrastructure/cache"
	"momo-storefront/internal/infrastructure/catalog"
	"momo-storefront/internal/infrastructure/momo"
	"momo-storefront/internal/infrastructure/orders"
	"momo-storefront/internal/repository/objectstore"
	"momo-storefront/internal/repository/postgres"
	"momo-storefront/internal/usecase"
	"momo-storefront/pkg/logger"
	"momo-storefront/pkg/storage"
	"momo-storefront/pkg/utils"

	"github.com/NYTimes/gziphandler"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const serviceName = "momo-storefront"

var version = "dev"

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Cart snapshot storage
	cartStorage, pool, err := newCartStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.CartStorageDriver).Msg("Failed to initialize cart storage")
	}
	if pool != nil {
		defer pool.Close()
		if cfg.CartSnapshotRetention > 0 {
			go pruneLoop(ctx, pool, cfg.CartSnapshotRetention, log)
		}
	}

	// Initialize Cache (In-Memory)
	// Sessions idle out after CartIdleTTL; products after CacheProductTTL
	sessionCache := cache.NewMemoryCache(cfg.CartIdleTTL, 10*time.Minute)
	productCache := cache.NewMemoryCache(cfg.CacheProductTTL, 30*time.Minute)

	// Upstream clients
	catalogClient := catalog.NewClient(cfg.CatalogBaseURL, cfg.UpstreamTimeout, productCache, cfg.CacheProductTTL)
	ordersClient := orders.NewClient(cfg.OrdersBaseURL, cfg.UpstreamTimeout)
	momoClient := momo.NewClient(cfg.PaymentBaseURL, cfg.UpstreamTimeout)

	// Usecases
	sessions := usecase.NewCartSessions(sessionCache, cartStorage, cfg.CartStorageKey, cfg.MaxCartQuantity, cfg.CartIdleTTL)
	checkoutUC := usecase.NewCheckoutUsecase(sessions, ordersClient, momoClient)

	// Set up Router
	mux := http.NewServeMux()
	v1.RegisterRoutes(mux,
		v1.NewCartHandler(sessions, catalogClient, cfg.Currency),
		v1.NewCatalogHandler(catalogClient, cfg.Currency),
		v1.NewCheckoutHandler(checkoutUC, cfg.Currency),
	)

	rateLimiter := middleware.NewRateLimiter(
		ctx,
		middleware.Limit{Rate: rate.Limit(cfg.RateLimitRPS), Burst: cfg.RateLimitBurst},
		middleware.Limit{Rate: rate.Limit(cfg.SessionRateLimitRPS), Burst: cfg.SessionRateLimitBurst},
		time.Minute,   // sweep period
		3*time.Minute, // bucket idle TTL
	)

	// Innermost first: auth, request logger, rate limit, session, CORS, gzip.
	// Logger and rate limit both need the session id.
	var handler http.Handler = middleware.OptionalAuth(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = middleware.NewSessionMiddleware(cfg.SessionCookieName, cfg.Env == "production")(handler)
	handler = middleware.NewCORSMiddleware(cfg)(handler)
	handler = gziphandler.GzipHandler(handler)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	logger.ServiceStart(serviceName, version, cfg.Port)
	log.Info().
		Str("storage", cfg.CartStorageDriver).
		Str("catalog", cfg.CatalogBaseURL).
		Msg("Storefront ready")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	rateLimiter.Shutdown()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.ServiceStop(serviceName)
}

// newCartStorage builds the configured snapshot backend. The pool is
// returned only for the postgres driver.
func newCartStorage(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (domain.CartStorage, *pgxpool.Pool, error) {
	switch cfg.CartStorageDriver {
	case config.StorageDriverPostgres:
		pool, err := postgres.NewPgxPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info().Msg("Successfully connected to PostgreSQL via pgx")
		return postgres.NewCartStorage(pool), pool, nil

	case config.StorageDriverR2:
		r2, err := storage.NewR2Storage(
			ctx,
			cfg.R2AccountID,
			cfg.R2AccessKeyID,
			cfg.R2AccessKeySecret,
			cfg.R2BucketName,
			"",
			cfg.R2UploadTimeout,
		)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("bucket", cfg.R2BucketName).Msg("Using R2 for cart snapshots")
		return objectstore.NewCartStorage(r2), nil, nil

	default:
		log.Warn().Msg("Using in-memory cart storage; carts are lost on restart")
		return cache.NewMemoryCartStorage(cfg.CartSnapshotRetention), nil, nil
	}
}

// pruneLoop deletes abandoned cart snapshots once an hour.
func pruneLoop(ctx context.Context, db postgres.DBTX, retention time.Duration, log *zerolog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := postgres.PruneSnapshots(ctx, db, retention.Seconds())
			if err != nil {
				log.Error().Err(err).Msg("Failed to prune cart snapshots")
				continue
			}
			if n > 0 {
				log.Info().Int64("removed", n).Msg("Pruned idle cart snapshots")
			}
		case <-ctx.Done():
			return
		}
	}
}
