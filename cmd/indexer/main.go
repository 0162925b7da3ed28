// Command indexer starts the streaming indexing service.
//
// It consumes record events from the record-ingest Kafka topic, matches each
// title against the drug vocabulary, and accumulates mentions into
// per-source graphs. On the configured interval the graphs are merged and
// persisted as a snapshot to PostgreSQL and the snapshot directory, and a
// graph-updated event is published for query-cache invalidation.
//
// Usage:
//
//	go run ./cmd/indexer [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sciwatch/drug-mentions-platform/internal/indexer"
	"github.com/sciwatch/drug-mentions-platform/internal/ingestion/loader"
	"github.com/sciwatch/drug-mentions-platform/internal/mentions/matcher"
	"github.com/sciwatch/drug-mentions-platform/pkg/config"
	"github.com/sciwatch/drug-mentions-platform/pkg/kafka"
	"github.com/sciwatch/drug-mentions-platform/pkg/logger"
	"github.com/sciwatch/drug-mentions-platform/pkg/metrics"
	"github.com/sciwatch/drug-mentions-platform/pkg/postgres"
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
	slog.Info("starting indexer service",
		"snapshot_dir", cfg.Indexer.SnapshotDir,
		"snapshot_interval", cfg.Indexer.SnapshotInterval,
	)

	drugs, err := loader.LoadDrugs(filepath.Join(cfg.Pipeline.DataDir, "drugs.csv"))
	if err != nil {
		slog.Error("failed to load drug vocabulary", "error", err)
		os.Exit(1)
	}
	vocab := matcher.NewVocabulary(drugs)
	slog.Info("vocabulary loaded", "drugs", len(drugs))

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to postgres")

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.GraphUpdated)
	defer producer.Close()

	svc := indexer.NewService(vocab, m)
	store := indexer.NewStore(db, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store.StartPeriodicSnapshot(ctx, svc, producer, cfg.Indexer)
	slog.Info("snapshot loop started")

	consumer := kafka.NewConsumer(
		cfg.Kafka,
		cfg.Kafka.Topics.RecordIngest,
		indexer.HandleRecordEvent(svc, db),
	)
	slog.Info("indexer service ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.RecordIngest,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := consumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}

	// Flush any indexed-but-unsnapshotted mentions before exit.
	if svc.Dirty() {
		slog.Info("persisting final snapshot before shutdown")
		final := svc.Snapshot()
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := store.SaveSnapshot(flushCtx, final); err != nil {
			slog.Error("final snapshot failed", "error", err)
		}
		if cfg.Indexer.SnapshotDir != "" {
			path := filepath.Join(cfg.Indexer.SnapshotDir, "drug_mentions_graph.json")
			if err := indexer.WriteSnapshotFile(path, final); err != nil {
				slog.Error("final snapshot file failed", "error", err)
			}
		}
	}
	slog.Info("indexer service stopped")
}
