package queryapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/sciwatch/drug-mentions-platform/internal/mentions/graph"
	"github.com/sciwatch/drug-mentions-platform/internal/mentions/query"
	apperrors "github.com/sciwatch/drug-mentions-platform/pkg/errors"
	"github.com/sciwatch/drug-mentions-platform/pkg/logger"
	"github.com/sciwatch/drug-mentions-platform/pkg/metrics"
)

const (
	queryTopJournal   = "top_journal"
	queryRelatedDrugs = "related_drugs"
)

// TopJournalResponse is the JSON body of the top-journal query.
type TopJournalResponse struct {
	Journal   string `json:"journal"`
	DrugCount int    `json:"drug_count"`
}

// RelatedDrugsResponse is the JSON body of the related-drugs query. Related
// is sorted and never null.
type RelatedDrugsResponse struct {
	Drug    string   `json:"drug"`
	Related []string `json:"related"`
}

// Handler serves the analytical query endpoints.
type Handler struct {
	provider GraphProvider
	cache    *QueryCache
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a Handler. cache may be nil, in which case every request
// recomputes its query.
func New(provider GraphProvider, cache *QueryCache, m *metrics.Metrics) *Handler {
	return &Handler{
		provider: provider,
		cache:    cache,
		metrics:  m,
		logger:   slog.Default().With("component", "query-handler"),
	}
}

// TopJournal handles GET /api/v1/queries/top-journal.
func (h *Handler) TopJournal(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, queryTopJournal, "", func(g graph.Graph) (any, error) {
		journal, count := query.TopJournal(g)
		return TopJournalResponse{Journal: journal, DrugCount: count}, nil
	})
}

// RelatedDrugs handles GET /api/v1/queries/related-drugs?drug=<name>.
func (h *Handler) RelatedDrugs(w http.ResponseWriter, r *http.Request) {
	drug := r.URL.Query().Get("drug")
	if drug == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'drug' is required")
		return
	}
	h.serve(w, r, queryRelatedDrugs, drug, func(g graph.Graph) (any, error) {
		if _, ok := g[drug]; !ok {
			return nil, fmt.Errorf("%w: drug %q is not in the graph", apperrors.ErrDrugNotFound, drug)
		}
		related := query.RelatedDrugsExclusiveToPubMed(g, drug)
		names := make([]string, 0, len(related))
		for name := range related {
			names = append(names, name)
		}
		sort.Strings(names)
		return RelatedDrugsResponse{Drug: drug, Related: names}, nil
	})
}

// serve runs one named query through the cache, recording latency and
// outcome metrics.
func (h *Handler) serve(w http.ResponseWriter, r *http.Request, name, param string, run func(graph.Graph) (any, error)) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	compute := func() ([]byte, error) {
		g, err := h.provider.Graph(ctx)
		if err != nil {
			return nil, err
		}
		result, err := run(g)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	}

	var data []byte
	var err error
	cacheHit := false
	if h.cache != nil {
		data, cacheHit, err = h.cache.GetOrCompute(ctx, name, param, compute)
	} else {
		data, err = compute()
	}
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		h.recordQuery(name, "error", cacheHit, start)
		log.Error("query failed",
			"query", name,
			"param", param,
			"status_code", status,
			"error", err,
		)
		h.writeError(w, status, err.Error())
		return
	}

	h.recordQuery(name, "success", cacheHit, start)
	log.Info("query completed",
		"query", name,
		"param", param,
		"cache_hit", cacheHit,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) recordQuery(name, result string, cacheHit bool, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.QueryRequestsTotal.WithLabelValues(name, result).Inc()
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
	}
	h.metrics.QueryLatency.WithLabelValues(name, cacheStatus).Observe(time.Since(start).Seconds())
}

// InvalidateOnGraphUpdate returns a Kafka message handler that flushes the
// query cache whenever a new snapshot is announced.
func (h *Handler) InvalidateOnGraphUpdate() func(ctx context.Context, key, value []byte) error {
	return func(ctx context.Context, key, value []byte) error {
		if h.cache == nil {
			return nil
		}
		return h.cache.Invalidate(ctx)
	}
}

// Health handles the liveness endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
