package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	flagpkg "quill/internal/flag"
	"quill/internal/platform/config"
	"quill/internal/platform/httpserver"
	"quill/internal/platform/logger"
	"quill/internal/platform/postgres"
	platformredis "quill/internal/platform/redis"
	"quill/internal/search/feed"
	"quill/internal/search/index"
	"quill/internal/search/indexer"
	searchmetrics "quill/internal/search/metrics"
	"quill/internal/search/query"
	httptransport "quill/internal/transport/http"
	"quill/internal/user"
	wikimetrics "quill/internal/wiki/metrics"
	"quill/internal/wiki/service"
	"quill/internal/wiki/store/registry"
	"quill/internal/wiki/store/revision"
)

// commitFeed is what main needs from either feed implementation.
type commitFeed interface {
	feed.Publisher
	Run(ctx context.Context, applier feed.Applier) error
}

// main wires the stores, services, and background workers, then runs the
// HTTP server until a shutdown signal. Business logic lives in the internal
// packages; everything here is assembly.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Authoritative stores: Postgres when configured, in-memory otherwise.
	var (
		registryStore registry.Store
		revisionStore revision.Store
		userStore     user.Store
		storeTx       service.StoreTx
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		registryStore = registry.NewPostgres(db)
		revisionStore = revision.NewPostgres(db)
		userStore = user.NewPostgres(db)
		storeTx = newWikiPostgresTx(db)
	} else {
		log.Warn("no database configured, using in-memory stores")
		registryStore = registry.NewMemory()
		revisionStore = revision.NewMemory()
		userStore = user.NewMemory()
		storeTx = service.NewMemoryTx(service.Stores{
			Registry:  registryStore,
			Revisions: revisionStore,
		})
	}

	// The search index keeps its own connection; it is a rebuildable cache
	// and may live on a different server than the authoritative store.
	var searchIndex index.Index
	if cfg.SearchDatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.SearchDatabaseURL)
		if err != nil {
			log.Error("failed to connect to search database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		pgIndex := index.NewPostgres(pool)
		if err := pgIndex.EnsureSchema(ctx); err != nil {
			log.Error("failed to apply search schema", "error", err)
			os.Exit(1)
		}
		searchIndex = pgIndex
	} else {
		searchIndex = index.NewMemory()
	}

	// Feature flags: Redis when configured, in-memory otherwise.
	var flagStore flagpkg.Store
	if cfg.RedisURL != "" {
		redisClient, err := platformredis.New(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		flagStore = flagpkg.NewRedis(redisClient.Client)
	} else {
		flagStore = flagpkg.NewMemory()
	}
	flagService := flagpkg.NewService(flagStore, map[string]bool{
		flagpkg.RegistrationEnabled: true,
	}, log)

	userService := user.NewService(userStore, flagService, []byte(cfg.JWTSigningKey))

	// Commit feed: Kafka when brokers are configured, in-process otherwise.
	var commits commitFeed
	if len(cfg.KafkaBrokers) > 0 {
		if err := feed.EnsureTopic(ctx, cfg.KafkaBrokers, cfg.KafkaTopic); err != nil {
			log.Error("failed to ensure kafka topic", "error", err)
			os.Exit(1)
		}
		kafkaFeed, err := feed.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, "quill-indexer", log)
		if err != nil {
			log.Error("failed to create kafka feed", "error", err)
			os.Exit(1)
		}
		defer kafkaFeed.Close()
		commits = kafkaFeed
	} else {
		commits = feed.NewChannel(256, log)
	}

	searchMetrics := searchmetrics.New()
	applier := indexer.New(searchIndex, log, searchMetrics)
	go func() {
		if err := commits.Run(ctx, applier); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("commit feed stopped", "error", err)
		}
	}()

	reconciler := indexer.NewReconciler(registryStore, revisionStore, searchIndex, log, searchMetrics)
	go func() {
		if err := reconciler.RunEvery(ctx, cfg.ReconcileInterval); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("reconciler stopped", "error", err)
		}
	}()

	articleService := service.New(registryStore, revisionStore,
		service.WithTx(storeTx),
		service.WithCommitPublisher(commits),
		service.WithLogger(log),
		service.WithMetrics(wikimetrics.New()),
	)
	queryService := query.New(searchIndex, registryStore, searchMetrics)

	handler := httptransport.NewHandler(articleService, queryService, userService, flagService, log)
	router := httptransport.NewRouter(handler, userService, log)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting quill", slog.String("addr", cfg.Addr))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
