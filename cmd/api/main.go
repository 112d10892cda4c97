package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"shopify-ledger-sync/internal/application"
	"shopify-ledger-sync/internal/config"
	"shopify-ledger-sync/internal/infrastructure/api"
	"shopify-ledger-sync/internal/infrastructure/cache"
	"shopify-ledger-sync/internal/infrastructure/ledger"
	"shopify-ledger-sync/internal/infrastructure/metrics"
	"shopify-ledger-sync/internal/infrastructure/repository"
	"shopify-ledger-sync/internal/infrastructure/scheduler"
	shopifyinfra "shopify-ledger-sync/internal/infrastructure/shopify"
	"shopify-ledger-sync/internal/infrastructure/sqlstore"
	"shopify-ledger-sync/internal/ports"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/text/language"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid log level")
	}
	logger = logger.Level(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("Failed to disconnect from MongoDB")
		}
	}()
	db := client.Database(cfg.MongoDatabase)

	// Initialize repositories
	connectionRepo := repository.NewMongoConnectionRepository(db)
	installationRepo := repository.NewMongoInstallationRepository(db)
	if err := connectionRepo.EnsureIndexes(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create connection indexes")
	}
	if err := installationRepo.EnsureIndexes(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create installation indexes")
	}

	records, err := openSyncRecords(ctx, cfg, db)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("Failed to open sync record store")
	}

	reports, closeReports := openReportStore(ctx, cfg, logger)
	defer closeReports()

	// Initialize adapters
	recorder := metrics.NewRecorder()
	ledgerClient := ledger.NewClient(cfg.LedgerAPIURL, cfg.LedgerTimeout, logger)
	tokenClient := ledger.NewTokenClient(cfg.LedgerTokenURL, cfg.LedgerTimeout)

	clientPool := shopifyinfra.NewClientPool(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret, shopifyinfra.PoolOptions{
		APIVersion: cfg.ShopifyAPIVersion,
	})
	pageDelay := cfg.ShopifyPageDelay
	if pageDelay == 0 {
		pageDelay = -1
	}
	shopSource := shopifyinfra.NewSource(installationRepo, clientPool, shopifyinfra.SourceOptions{PageDelay: pageDelay}, logger)

	// Initialize application services
	tokenService := application.NewTokenService(connectionRepo, tokenClient, recorder, logger)
	connectionService := application.NewConnectionService(connectionRepo, installationRepo, tokenService, reports, logger)
	orderService := application.NewOrderSyncService(
		shopSource,
		connectionRepo,
		records,
		ledgerClient,
		tokenService,
		application.NewCountryResolver(language.MustParse("nb")),
		recorder,
		logger,
	)
	productService := application.NewProductSyncService(
		shopSource,
		connectionRepo,
		records,
		ledgerClient,
		tokenService,
		application.NewProductDiffEngine(ledgerClient, logger),
		recorder,
		logger,
	)
	autoSyncService := application.NewAutoSyncService(
		connectionRepo,
		shopSource,
		shopSource,
		productService,
		orderService,
		reports,
		recorder,
		logger,
		application.AutoSyncOptions{SkipUnchanged: cfg.AutoSyncSkipUnchanged},
	)

	if cfg.AutoSyncEnabled {
		task := scheduler.NewSweepTask(autoSyncService, cfg.AutoSyncSchedule, 0, logger)
		if err := task.Start(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to schedule auto-sync")
		}
		defer task.Stop()
	}

	handler := api.NewHandler(connectionService, orderService, productService, autoSyncService, logger)
	router := api.NewRouter(handler, logger, api.RouterOptions{
		Metrics:    recorder.Handler(),
		Instrument: recorder.Middleware,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Port).Str("storage", cfg.StorageDriver).Bool("autoSync", cfg.AutoSyncEnabled).Msg("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Failed to start server")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
}

func openSyncRecords(ctx context.Context, cfg *config.Config, db *mongo.Database) (ports.SyncRecordStore, error) {
	if cfg.StorageDriver == config.StoragePostgres {
		gdb, err := sqlstore.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		store := sqlstore.NewStore(gdb)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}

	repo := repository.NewMongoSyncRecordRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func openReportStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (ports.SweepReportStore, func()) {
	if cfg.RedisURL == "" {
		logger.Info().Msg("REDIS_URL not set, keeping sweep reports in memory")
		return cache.NewMemoryReportStore(), func() {}
	}
	store, err := cache.NewRedisReportStore(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
}
