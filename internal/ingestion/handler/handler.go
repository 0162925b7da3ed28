package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sciwatch/drug-mentions-platform/internal/ingestion"
	"github.com/sciwatch/drug-mentions-platform/internal/ingestion/publisher"
	"github.com/sciwatch/drug-mentions-platform/internal/ingestion/validator"
	apperrors "github.com/sciwatch/drug-mentions-platform/pkg/errors"
	"github.com/sciwatch/drug-mentions-platform/pkg/logger"
	"github.com/sciwatch/drug-mentions-platform/pkg/metrics"
)

type Handler struct {
	publisher *publisher.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(pub *publisher.Publisher, m *metrics.Metrics) *Handler {
	return &Handler{
		publisher: pub,
		metrics:   m,
		logger:    slog.Default().With("component", "ingestion-handler"),
	}
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	var req ingestion.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.RecordsRejectedTotal.WithLabelValues("invalid_json").Inc()
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validator.ValidateIngestRequest(&req); err != nil {
		h.metrics.RecordsRejectedTotal.WithLabelValues("validation").Inc()
		var validationErr *validator.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.publisher.Ingest(ctx, &req)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		h.metrics.RecordsRejectedTotal.WithLabelValues("persistence").Inc()
		log.Error("ingestion failed",
			"error", err,
			"status_code", statusCode,
		)
		h.writeError(w, statusCode, "ingestion failed")
		return
	}
	h.metrics.RecordsIngestedTotal.WithLabelValues(resp.Source).Inc()
	log.Info("record ingested",
		"record_id", resp.RecordID,
		"source", resp.Source,
	)
	h.writeJSON(w, http.StatusAccepted, resp)
}

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
