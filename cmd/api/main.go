package main

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Comnyando/craftstock-backend/api/controllers"
	"github.com/Comnyando/craftstock-backend/api/routes"
	"github.com/Comnyando/craftstock-backend/internal/blueprints"
	"github.com/Comnyando/craftstock-backend/internal/catalog"
	"github.com/Comnyando/craftstock-backend/internal/crafts"
	"github.com/Comnyando/craftstock-backend/internal/gaps"
	"github.com/Comnyando/craftstock-backend/internal/sources"
	"github.com/Comnyando/craftstock-backend/internal/stock"
	"github.com/Comnyando/craftstock-backend/internal/suggestions"
	"github.com/Comnyando/craftstock-backend/pkg/config"
	"github.com/Comnyando/craftstock-backend/pkg/db"
	"github.com/Comnyando/craftstock-backend/pkg/logger"
	"github.com/Comnyando/craftstock-backend/pkg/metrics"
	"github.com/Comnyando/craftstock-backend/pkg/migrate"
	"github.com/Comnyando/craftstock-backend/pkg/outbox"
	"github.com/Comnyando/craftstock-backend/pkg/pubsub"
	"github.com/Comnyando/craftstock-backend/pkg/redis"
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

	// Pub/Sub is only needed by the outbox publisher; the API pings it for
	// readiness when configured and skips it otherwise.
	var pubsubP controllers.Pinger
	if strings.TrimSpace(cfg.GCP.ProjectID) != "" {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub client", err)
			}
		}()
		pubsubP = pubsubClient
	}

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(registry)

	stockRepo := stock.NewRepository(dbClient.DB())
	craftRepo := crafts.NewRepository(dbClient.DB())
	blueprintRepo := blueprints.NewRepository(dbClient.DB())
	itemRepo := catalog.NewItemRepository(dbClient.DB())
	locationRepo := catalog.NewLocationRepository(dbClient.DB())
	sourceRepo := sources.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	finder, err := sources.NewService(sourceRepo, cfg.Engine.MaxSourceResults)
	if err != nil {
		logg.Error(context.Background(), "failed to create source finder", err)
		os.Exit(1)
	}

	stockService, err := stock.NewService(dbClient, stockRepo, itemRepo, locationRepo, outboxService, engineMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}

	craftService, err := crafts.NewService(
		dbClient,
		craftRepo,
		blueprintRepo,
		locationRepo,
		stockRepo,
		finder,
		outboxService,
		engineMetrics,
		logg,
		cfg.Engine,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create craft service", err)
		os.Exit(1)
	}

	gapService, err := gaps.NewService(craftRepo, stockRepo, sourceRepo, finder, cfg.Engine.MaxGapSources, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create gap analyzer", err)
		os.Exit(1)
	}

	suggestionService, err := suggestions.NewService(blueprintRepo, finder, cfg.Engine.MaxSuggestions, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create suggestion service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			pubsubP,
			registry,
			stockService,
			craftService,
			gapService,
			finder,
			suggestionService,
			blueprintRepo,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
