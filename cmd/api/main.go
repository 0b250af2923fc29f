package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/pending"
	"github.com/angelmondragon/storefront-backend/internal/storage"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	slots, err := newSlots(cfg, dbClient, redisClient)
	if err != nil {
		logg.Error(ctx, "failed to select cart storage", err)
		os.Exit(1)
	}

	cartMetrics := metrics.NewCartMetrics(prometheus.DefaultRegisterer)
	carts := cart.NewRegistry(slots, logg, cartMetrics, cart.WithCacheLimits(cfg.Cart.SessionCacheSize, cfg.Cart.SessionCacheTTL))
	guard := pending.NewGuard(cfg.Cart.SessionCacheSize, cfg.Cart.PendingAddTTL)
	repo := catalog.NewRepository(dbClient.DB())
	var products catalog.Lookup = repo
	if redisClient != nil {
		products = catalog.NewCachedLookup(repo, redisClient, cfg.Catalog.CacheTTL, logg)
	}
	inbox := notifications.NewInbox(cfg.Cart.NotificationsLimit)

	reconciler, err := pending.NewReconciler(pending.ReconcilerDeps{
		Slots:       slots,
		Carts:       carts,
		Auth:        auth.ContextAuthenticator{},
		Products:    products,
		Notifier:    inbox,
		Metrics:     cartMetrics,
		Logger:      logg,
		SettleDelay: cfg.Cart.ReconcileSettle,
		Guard:       guard,
	})
	if err != nil {
		logg.Error(ctx, "failed to create reconciler", err)
		os.Exit(1)
	}

	pingers := map[string]controllers.Pinger{"database": dbClient}
	if redisClient != nil {
		pingers["redis"] = redisClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"storage":  cfg.Cart.Backend(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(routes.Deps{
			Config:     cfg,
			Logger:     logg,
			Pingers:    pingers,
			Gatherer:   prometheus.DefaultGatherer,
			Slots:      slots,
			Carts:      carts,
			Catalog:    repo,
			Products:   products,
			Deferrer:   pending.NewDeferrer(slots, guard, cfg.Cart.PendingAddTTL, logg),
			Reconciler: reconciler,
			Inbox:      inbox,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func newSlots(cfg *config.Config, dbClient *db.Client, redisClient *redis.Client) (storage.Store, error) {
	switch cfg.Cart.Backend() {
	case config.StorageBackendRedis:
		if redisClient == nil {
			return nil, errors.New("redis storage selected but no redis endpoint configured")
		}
		return storage.NewRedis(redisClient), nil
	case config.StorageBackendSQL:
		return storage.NewSQL(dbClient.DB()), nil
	default:
		return storage.NewMemory(), nil
	}
}
