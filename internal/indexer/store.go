package indexer

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sciwatch/drug-mentions-platform/internal/mentions/graph"
	"github.com/sciwatch/drug-mentions-platform/pkg/config"
	apperrors "github.com/sciwatch/drug-mentions-platform/pkg/errors"
	"github.com/sciwatch/drug-mentions-platform/pkg/kafka"
	"github.com/sciwatch/drug-mentions-platform/pkg/metrics"
	"github.com/sciwatch/drug-mentions-platform/pkg/postgres"
	"github.com/sciwatch/drug-mentions-platform/pkg/resilience"
)

// GraphUpdatedEvent is published after a snapshot is persisted so that query
// services can invalidate their caches and reload.
type GraphUpdatedEvent struct {
	DrugCount    int       `json:"drug_count"`
	MentionCount int       `json:"mention_count"`
	CapturedAt   time.Time `json:"captured_at"`
}

// Store persists merged graph snapshots.
//
// It requires a `graph_snapshots` table:
//
//	CREATE TABLE graph_snapshots (
//	    id          BIGSERIAL PRIMARY KEY,
//	    captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    drug_count  INT NOT NULL,
//	    graph       JSONB NOT NULL
//	);
type Store struct {
	db      *postgres.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewStore creates a snapshot Store backed by PostgreSQL.
func NewStore(db *postgres.Client, m *metrics.Metrics) *Store {
	return &Store{
		db:      db,
		metrics: m,
		logger:  slog.Default().With("component", "snapshot-store"),
	}
}

// SaveSnapshot inserts the graph as a new snapshot row.
func (st *Store) SaveSnapshot(ctx context.Context, g graph.Graph) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	err = st.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO graph_snapshots (drug_count, graph) VALUES ($1, $2)`,
			len(g), data)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recently persisted graph, or
// ErrGraphNotReady when no snapshot exists yet.
func (st *Store) LatestSnapshot(ctx context.Context) (graph.Graph, error) {
	var data []byte
	err := st.db.DB.QueryRowContext(ctx,
		`SELECT graph FROM graph_snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no snapshot persisted yet", apperrors.ErrGraphNotReady)
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest snapshot: %w", err)
	}
	return graph.Decode(bytes.NewReader(data))
}

// WriteSnapshotFile writes the graph to path as indented JSON, atomically
// via a temp file in the same directory.
func WriteSnapshotFile(path string, g graph.Graph) error {
	data, err := g.MarshalIndented()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming snapshot into place: %w", err)
	}
	return nil
}

// StartPeriodicSnapshot launches a goroutine that merges and persists the
// service's graph on the configured interval, skipping intervals in which
// nothing was indexed. Each persisted snapshot is announced on the
// graph-updated topic when a producer is provided.
func (st *Store) StartPeriodicSnapshot(ctx context.Context, svc *Service, producer *kafka.Producer, cfg config.IndexerConfig) {
	interval := cfg.SnapshotInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				st.logger.Info("snapshot loop stopping", "reason", ctx.Err())
				return
			case <-ticker.C:
				if !svc.Dirty() {
					continue
				}
				st.snapshotOnce(ctx, svc, producer, cfg.SnapshotDir)
			}
		}
	}()
}

func (st *Store) snapshotOnce(ctx context.Context, svc *Service, producer *kafka.Producer, snapshotDir string) {
	snap := svc.Snapshot()

	err := resilience.Retry(ctx, "save-snapshot", resilience.RetryConfig{}, func() error {
		return st.SaveSnapshot(ctx, snap)
	})
	if err != nil {
		st.logger.Error("failed to persist snapshot", "error", err)
		if st.metrics != nil {
			st.metrics.SnapshotsTotal.WithLabelValues("error").Inc()
		}
		return
	}

	if snapshotDir != "" {
		path := filepath.Join(snapshotDir, "drug_mentions_graph.json")
		if err := WriteSnapshotFile(path, snap); err != nil {
			st.logger.Error("failed to write snapshot file", "path", path, "error", err)
		}
	}

	if producer != nil {
		event := kafka.Event{
			Value: GraphUpdatedEvent{
				DrugCount:    len(snap),
				MentionCount: snap.MentionCount(),
				CapturedAt:   time.Now().UTC(),
			},
		}
		if err := producer.Publish(ctx, event); err != nil {
			st.logger.Error("failed to publish graph-updated event", "error", err)
		}
	}

	if st.metrics != nil {
		st.metrics.SnapshotsTotal.WithLabelValues("success").Inc()
	}
	st.logger.Info("snapshot persisted",
		"drugs", len(snap),
		"mentions", snap.MentionCount(),
	)
}
