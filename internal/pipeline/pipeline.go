// Package pipeline runs the batch indexing flow: load the drug vocabulary
// and both record sources, build the per-source mention graphs in parallel,
// merge them, write the serialized graph and its rendering to the outputs
// directory, and answer the analytical queries.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sciwatch/drug-mentions-platform/internal/indexer"
	"github.com/sciwatch/drug-mentions-platform/internal/ingestion/loader"
	"github.com/sciwatch/drug-mentions-platform/internal/mentions/graph"
	"github.com/sciwatch/drug-mentions-platform/internal/mentions/matcher"
	"github.com/sciwatch/drug-mentions-platform/internal/mentions/query"
	"github.com/sciwatch/drug-mentions-platform/internal/viz"
	"github.com/sciwatch/drug-mentions-platform/pkg/config"
	"github.com/sciwatch/drug-mentions-platform/pkg/metrics"
)

// GraphFileName is the serialized graph's file name under the outputs
// directory, for both the batch pipeline and the streaming indexer.
const GraphFileName = "drug_mentions_graph.json"

// Result summarizes one pipeline run.
type Result struct {
	Graph               graph.Graph
	GraphPath           string
	DOTPath             string
	PNGPath             string
	TopJournal          string
	TopJournalDrugCount int
}

// Run executes the batch pipeline. Any malformed input is terminal: no
// partial graph is written.
func Run(ctx context.Context, cfg config.PipelineConfig, m *metrics.Metrics) (*Result, error) {
	log := slog.Default().With("component", "pipeline")
	start := time.Now()

	drugs, err := loader.LoadDrugs(filepath.Join(cfg.DataDir, "drugs.csv"))
	if err != nil {
		return nil, err
	}
	vocab := matcher.NewVocabulary(drugs)
	log.Info("vocabulary loaded", "drugs", len(drugs))

	// The two sources are independent until the merge barrier.
	var pubmed, trials graph.Graph
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		pubmed, err = buildSource(egCtx, cfg, loader.PubMed, vocab, m)
		return err
	})
	eg.Go(func() error {
		var err error
		trials, err = buildSource(egCtx, cfg, loader.ClinicalTrials, vocab, m)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	mergeStart := time.Now()
	merged := graph.Merge(pubmed, trials)
	if m != nil {
		m.MergeDuration.Observe(time.Since(mergeStart).Seconds())
		m.GraphDrugCount.Set(float64(len(merged)))
	}
	log.Info("graphs merged",
		"drugs", len(merged),
		"mentions", merged.MentionCount(),
	)

	if err := os.MkdirAll(cfg.OutputsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating outputs directory %s: %w", cfg.OutputsDir, err)
	}
	graphPath := filepath.Join(cfg.OutputsDir, GraphFileName)
	if err := indexer.WriteSnapshotFile(graphPath, merged); err != nil {
		return nil, err
	}
	log.Info("graph written", "path", graphPath)

	result := &Result{
		Graph:     merged,
		GraphPath: graphPath,
	}
	result.DOTPath = filepath.Join(cfg.OutputsDir, "drug_mentions_graph.dot")
	if err := viz.WriteDOTFile(result.DOTPath, merged); err != nil {
		return nil, err
	}
	if cfg.RenderPNG {
		pngPath := filepath.Join(cfg.OutputsDir, "drug_mentions_graph.png")
		if err := viz.RenderPNG(ctx, result.DOTPath, pngPath); err != nil {
			log.Warn("png rendering skipped", "error", err)
		} else {
			result.PNGPath = pngPath
		}
	}

	result.TopJournal, result.TopJournalDrugCount = query.TopJournal(merged)
	log.Info("top journal",
		"journal", result.TopJournal,
		"unique_drugs", result.TopJournalDrugCount,
	)
	log.Info("pipeline finished", "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// buildSource loads one source's files and builds its mention graph.
func buildSource(ctx context.Context, cfg config.PipelineConfig, src loader.Source, vocab *matcher.Vocabulary, m *metrics.Metrics) (graph.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	records, err := loader.LoadSource(cfg.DataDir, src)
	if err != nil {
		return nil, err
	}
	g, err := graph.Build(records, vocab, src.Tag, nil)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.RecordsIngestedTotal.WithLabelValues(src.Tag).Add(float64(len(records)))
		m.MentionsIndexedTotal.WithLabelValues(src.Tag).Add(float64(g.MentionCount()))
		m.BuildDuration.WithLabelValues(src.Tag).Observe(time.Since(start).Seconds())
	}
	slog.Default().With("component", "pipeline").Info("source built",
		"source", src.Tag,
		"records", len(records),
		"mentions", g.MentionCount(),
	)
	return g, nil
}
