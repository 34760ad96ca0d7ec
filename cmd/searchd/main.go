package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/searchkit/retrieval/internal/analyzer"
	"github.com/searchkit/retrieval/internal/corpus"
	"github.com/searchkit/retrieval/internal/ingest"
	"github.com/searchkit/retrieval/internal/search"
	"github.com/searchkit/retrieval/pkg/config"
	"github.com/searchkit/retrieval/pkg/health"
	"github.com/searchkit/retrieval/pkg/kafka"
	"github.com/searchkit/retrieval/pkg/logger"
	"github.com/searchkit/retrieval/pkg/metrics"
	"github.com/searchkit/retrieval/pkg/middleware"
	"github.com/searchkit/retrieval/pkg/postgres"
	pkgredis "github.com/searchkit/retrieval/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting retrieval service", "port", cfg.Server.Port, "kgram_size", cfg.Index.KGramSize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	pgClient, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pgClient.Close()

	source := corpus.NewPostgresSource(pgClient)
	docs, err := source.Load(ctx)
	if err != nil {
		slog.Error("failed to load document collection", "error", err)
		os.Exit(1)
	}
	slog.Info("document collection loaded", "docs", len(docs))

	a := analyzer.New(analyzer.Config{})
	engine := search.NewEngine(a, cfg.Index)

	var queryCache *search.QueryCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, query caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = search.NewQueryCache(redisClient, cfg.Redis)
		slog.Info("query cache enabled",
			"addr", cfg.Redis.Addr,
			"ttl", cfg.Redis.CacheTTL,
		)
	}

	rebuildProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.RebuildComplete)
	defer rebuildProducer.Close()

	var invalidator ingest.Invalidator
	if queryCache != nil {
		invalidator = queryCache
	}
	stager := ingest.NewStager(engine, a, docs, cfg.Index.RebuildBatchSize, rebuildProducer, invalidator, m)
	if err := stager.Flush(ctx); err != nil {
		slog.Error("initial index build failed", "error", err)
		os.Exit(1)
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, stager.Handle())
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("ingest consumer error", "error", err)
		}
	}()

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if snap := engine.Snapshot(); snap != nil {
			return health.ComponentHealth{
				Status:  health.StatusUp,
				Message: fmt.Sprintf("%d docs indexed", snap.Docs),
			}
		}
		return health.ComponentHealth{Status: health.StatusDown, Message: "no snapshot"}
	})
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if err := pgClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := search.NewHandler(engine, queryCache, m, search.HandlerConfig{
		DefaultLimit:     cfg.Search.DefaultLimit,
		MaxResults:       cfg.Search.MaxResults,
		DefaultProximity: cfg.Search.DefaultProximity,
		FuzzyMaxDistance: cfg.Search.FuzzyMaxDistance,
	})

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	if cfg.Metrics.Enabled {
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			slog.Info("metrics server listening", "addr", addr)
			if err := http.ListenAndServe(addr, metrics.Handler()); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("retrieval service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("retrieval service stopped")
}
