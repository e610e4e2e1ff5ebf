package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tierforge/tierforge-backend/api/routes"
	"github.com/tierforge/tierforge-backend/internal/catalog"
	"github.com/tierforge/tierforge-backend/internal/manufacturers"
	"github.com/tierforge/tierforge-backend/internal/tiers"
	"github.com/tierforge/tierforge-backend/internal/users"
	"github.com/tierforge/tierforge-backend/pkg/config"
	"github.com/tierforge/tierforge-backend/pkg/db"
	"github.com/tierforge/tierforge-backend/pkg/logger"
	"github.com/tierforge/tierforge-backend/pkg/metrics"
	"github.com/tierforge/tierforge-backend/pkg/migrate"
	"github.com/tierforge/tierforge-backend/pkg/outbox"
	"github.com/tierforge/tierforge-backend/pkg/redis"
)

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
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	tierMetrics := metrics.NewTierMetrics(prometheus.DefaultRegisterer)
	hierarchyCache := tiers.NewHierarchyCache(redisClient, cfg.Cache.HierarchyTTL, logg)
	emitter := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	tierService, err := tiers.NewService(
		tiers.NewRepository(dbClient.DB()),
		dbClient,
		manufacturers.NewRepository(dbClient.DB()),
		catalog.NewRepository(dbClient.DB()),
		users.NewRepository(dbClient.DB()),
		emitter,
		hierarchyCache,
		tierMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create tier service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, tierService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
