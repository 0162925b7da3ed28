// Command query starts the analytical query HTTP service.
//
// It serves the two graph queries over the latest merged snapshot:
//
//	GET /api/v1/queries/top-journal
//	GET /api/v1/queries/related-drugs?drug=<name>
//
// The snapshot file is reloaded periodically. Results are cached in Redis
// when available, and the cache is flushed whenever a graph-updated event
// arrives from the indexer.
//
// Usage:
//
//	go run ./cmd/query [-config configs/development.yaml]
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

	"github.com/sciwatch/drug-mentions-platform/internal/queryapi"
	"github.com/sciwatch/drug-mentions-platform/pkg/config"
	"github.com/sciwatch/drug-mentions-platform/pkg/health"
	"github.com/sciwatch/drug-mentions-platform/pkg/kafka"
	"github.com/sciwatch/drug-mentions-platform/pkg/logger"
	"github.com/sciwatch/drug-mentions-platform/pkg/metrics"
	"github.com/sciwatch/drug-mentions-platform/pkg/middleware"
	pkgredis "github.com/sciwatch/drug-mentions-platform/pkg/redis"
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
	slog.Info("starting query service",
		"port", cfg.Server.Port,
		"snapshot", cfg.Query.SnapshotPath,
	)

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := queryapi.NewFileProvider(cfg.Query)
	provider.Start(ctx)

	var queryCache *queryapi.QueryCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, query caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = queryapi.NewQueryCache(redisClient, cfg.Redis, m)
		slog.Info("query cache enabled",
			"addr", cfg.Redis.Addr,
			"ttl", cfg.Redis.CacheTTL,
		)
	}

	h := queryapi.New(provider, queryCache, m)

	if queryCache != nil {
		invalidator := kafka.NewConsumer(
			cfg.Kafka,
			cfg.Kafka.Topics.GraphUpdated,
			h.InvalidateOnGraphUpdate(),
		)
		go func() {
			if err := invalidator.Start(ctx); err != nil {
				slog.Error("graph-updated consumer error", "error", err)
			}
		}()
		slog.Info("cache invalidation consumer started", "topic", cfg.Kafka.Topics.GraphUpdated)
	}

	checker := health.NewChecker()
	checker.Register("graph", func(ctx context.Context) health.ComponentHealth {
		if _, err := provider.Graph(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
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

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/queries/top-journal", h.TopJournal)
	mux.HandleFunc("GET /api/v1/queries/related-drugs", h.RelatedDrugs)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

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

	slog.Info("query service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("query service stopped")
}
