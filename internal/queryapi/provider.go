// Package queryapi exposes the analytical queries over HTTP. The graph is
// supplied by a GraphProvider (snapshot file or PostgreSQL snapshot store)
// and results are cached in Redis with singleflight protection.
package queryapi

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/sciwatch/drug-mentions-platform/internal/indexer"
	"github.com/sciwatch/drug-mentions-platform/internal/mentions/graph"
	"github.com/sciwatch/drug-mentions-platform/pkg/config"
	apperrors "github.com/sciwatch/drug-mentions-platform/pkg/errors"
)

// GraphProvider supplies the graph that queries run against. The returned
// graph is shared and must be treated as read-only.
type GraphProvider interface {
	Graph(ctx context.Context) (graph.Graph, error)
}

// GraphProviderFunc adapts a function to the GraphProvider interface.
type GraphProviderFunc func(ctx context.Context) (graph.Graph, error)

func (f GraphProviderFunc) Graph(ctx context.Context) (graph.Graph, error) {
	return f(ctx)
}

// FileProvider serves the graph from a snapshot file on disk, reloading it
// on a fixed period when the file's modification time changes.
type FileProvider struct {
	path   string
	period time.Duration
	logger *slog.Logger

	mu      sync.RWMutex
	current graph.Graph
	modTime time.Time
}

// NewFileProvider creates a FileProvider for the configured snapshot path.
// Call Reload or Start before serving queries.
func NewFileProvider(cfg config.QueryConfig) *FileProvider {
	period := cfg.ReloadPeriod
	if period <= 0 {
		period = time.Minute
	}
	return &FileProvider{
		path:   cfg.SnapshotPath,
		period: period,
		logger: slog.Default().With("component", "graph-provider", "path", cfg.SnapshotPath),
	}
}

// Graph returns the currently loaded graph, or ErrGraphNotReady when no
// snapshot has been loaded yet.
func (p *FileProvider) Graph(ctx context.Context) (graph.Graph, error) {
	p.mu.RLock()
	g := p.current
	p.mu.RUnlock()
	if g == nil {
		return nil, fmt.Errorf("%w: snapshot %s not loaded", apperrors.ErrGraphNotReady, p.path)
	}
	return g, nil
}

// Reload loads the snapshot file if its modification time changed since the
// last load. A missing file is ErrGraphNotReady.
func (p *FileProvider) Reload() error {
	info, err := os.Stat(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: snapshot %s does not exist", apperrors.ErrGraphNotReady, p.path)
		}
		return fmt.Errorf("checking snapshot %s: %w", p.path, err)
	}

	p.mu.RLock()
	unchanged := p.current != nil && info.ModTime().Equal(p.modTime)
	p.mu.RUnlock()
	if unchanged {
		return nil
	}

	f, err := os.Open(p.path)
	if err != nil {
		return fmt.Errorf("opening snapshot %s: %w", p.path, err)
	}
	defer f.Close()
	g, err := graph.Decode(f)
	if err != nil {
		return fmt.Errorf("decoding snapshot %s: %w", p.path, err)
	}

	p.mu.Lock()
	p.current = g
	p.modTime = info.ModTime()
	p.mu.Unlock()
	p.logger.Info("snapshot loaded", "drugs", len(g), "mentions", g.MentionCount())
	return nil
}

// Start loads the snapshot once, then reloads it periodically until ctx is
// cancelled. A missing initial snapshot is logged, not fatal: the indexer
// may not have produced one yet.
func (p *FileProvider) Start(ctx context.Context) {
	if err := p.Reload(); err != nil {
		p.logger.Warn("initial snapshot load failed", "error", err)
	}
	go func() {
		ticker := time.NewTicker(p.period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.Reload(); err != nil {
					p.logger.Error("snapshot reload failed", "error", err)
				}
			}
		}
	}()
}

// StoreProvider serves the latest snapshot from the PostgreSQL snapshot
// store. Intended to sit behind the query cache; every call hits the
// database.
type StoreProvider struct {
	store *indexer.Store
}

// NewStoreProvider creates a StoreProvider over the given snapshot store.
func NewStoreProvider(store *indexer.Store) *StoreProvider {
	return &StoreProvider{store: store}
}

func (p *StoreProvider) Graph(ctx context.Context) (graph.Graph, error) {
	return p.store.LatestSnapshot(ctx)
}
