// Package indexer maintains the live drug-mentions graph for the streaming
// path: record events consumed from Kafka are matched against the drug
// vocabulary and accumulated into per-source graphs, which are periodically
// merged and persisted as snapshots.
package indexer

import (
	"log/slog"
	"sync"

	"github.com/sciwatch/drug-mentions-platform/internal/mentions/graph"
	"github.com/sciwatch/drug-mentions-platform/internal/mentions/matcher"
	"github.com/sciwatch/drug-mentions-platform/pkg/metrics"
)

// Service accumulates indexed records into one graph per source tag.
// Per-source graphs are kept separate so that each snapshot is produced by
// the same merge step the batch pipeline uses.
type Service struct {
	mu        sync.Mutex
	vocab     *matcher.Vocabulary
	perSource map[string]graph.Graph
	dirty     bool

	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewService creates a Service matching titles against the given vocabulary.
func NewService(vocab *matcher.Vocabulary, m *metrics.Metrics) *Service {
	return &Service{
		vocab:     vocab,
		perSource: make(map[string]graph.Graph, len(graph.SourceTags)),
		metrics:   m,
		logger:    slog.Default().With("component", "indexer"),
	}
}

// IndexRecord matches the record's title against the vocabulary and appends
// the resulting mentions to the graph of the given source tag. Records whose
// titles mention no drug leave the graph untouched.
func (s *Service) IndexRecord(rec graph.Record, sourceTag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.perSource[sourceTag]
	if !ok {
		g = graph.New()
		s.perSource[sourceTag] = g
	}
	before := g.MentionCount()
	if _, err := graph.Build([]graph.Record{rec}, s.vocab, sourceTag, g); err != nil {
		return err
	}
	added := g.MentionCount() - before
	if added > 0 {
		s.dirty = true
		if s.metrics != nil {
			s.metrics.MentionsIndexedTotal.WithLabelValues(sourceTag).Add(float64(added))
		}
	}
	return nil
}

// Dirty reports whether mentions were indexed since the last Snapshot call.
func (s *Service) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Snapshot merges the per-source graphs into a single graph and returns it.
// Sources are merged in their fixed tag order, so repeated snapshots of the
// same state are identical. The returned graph shares no state with the
// service and may be mutated or serialized freely.
func (s *Service) Snapshot() graph.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := graph.New()
	for _, tag := range graph.SourceTags {
		if g, ok := s.perSource[tag]; ok {
			merged = graph.Merge(merged, g)
		}
	}
	s.dirty = false
	if s.metrics != nil {
		s.metrics.GraphDrugCount.Set(float64(len(merged)))
	}
	return merged
}
