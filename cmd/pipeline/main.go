// Command pipeline runs the batch drug-mentions flow once: it loads the drug
// vocabulary and the PubMed and clinical-trial record files from the data
// directory, builds and merges the mention graph, writes the serialized
// graph and its Graphviz rendering to the outputs directory, and logs the
// journal mentioning the most unique drugs.
//
// Usage:
//
//	go run ./cmd/pipeline [-config configs/development.yaml] [-data DIR] [-out DIR] [-drug NAME]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/sciwatch/drug-mentions-platform/internal/mentions/query"
	"github.com/sciwatch/drug-mentions-platform/internal/pipeline"
	"github.com/sciwatch/drug-mentions-platform/pkg/config"
	"github.com/sciwatch/drug-mentions-platform/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	dataDir := flag.String("data", "", "override the configured data directory")
	outputsDir := flag.String("out", "", "override the configured outputs directory")
	targetDrug := flag.String("drug", "", "also report drugs related to NAME via PubMed-exclusive journals")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Pipeline.DataDir = *dataDir
	}
	if *outputsDir != "" {
		cfg.Pipeline.OutputsDir = *outputsDir
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting pipeline",
		"data_dir", cfg.Pipeline.DataDir,
		"outputs_dir", cfg.Pipeline.OutputsDir,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := pipeline.Run(ctx, cfg.Pipeline, nil)
	if err != nil {
		slog.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
	slog.Info("pipeline succeeded",
		"graph", result.GraphPath,
		"drugs", len(result.Graph),
		"top_journal", result.TopJournal,
		"top_journal_unique_drugs", result.TopJournalDrugCount,
	)

	if *targetDrug != "" {
		related := query.RelatedDrugsExclusiveToPubMed(result.Graph, *targetDrug)
		names := make([]string, 0, len(related))
		for name := range related {
			names = append(names, name)
		}
		sort.Strings(names)
		slog.Info("related drugs via PubMed-exclusive journals",
			"drug", *targetDrug,
			"related", names,
		)
	}
}
