package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sciwatch/drug-mentions-platform/internal/ingestion"
	"github.com/sciwatch/drug-mentions-platform/internal/mentions/graph"
	apperrors "github.com/sciwatch/drug-mentions-platform/pkg/errors"
	"github.com/sciwatch/drug-mentions-platform/pkg/kafka"
	"github.com/sciwatch/drug-mentions-platform/pkg/postgres"
)

// HandleRecordEvent returns the Kafka message handler for record-ingest
// events. Each event is decoded, indexed into the service, and marked as
// indexed in PostgreSQL when a database client is provided. Decode and date
// failures are returned so the consumer logs and skips the message instead
// of retrying it forever.
func HandleRecordEvent(svc *Service, db *postgres.Client) kafka.MessageHandler {
	log := slog.Default().With("component", "indexer-consumer")

	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.RecordEvent](value)
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrMalformedRecord, err)
		}
		tag, err := graphSourceTag(event.Source)
		if err != nil {
			return err
		}
		pubDate, err := time.Parse("2006-01-02", event.Date)
		if err != nil {
			return fmt.Errorf("%w: record %s has date %q", apperrors.ErrDateFormat, event.RecordID, event.Date)
		}

		rec := graph.Record{
			ID:      event.RecordID,
			Title:   event.Title,
			Journal: event.Journal,
			Date:    pubDate,
		}
		if err := svc.IndexRecord(rec, tag); err != nil {
			return fmt.Errorf("indexing record %s: %w", event.RecordID, err)
		}

		if db != nil {
			if err := markIndexed(ctx, db, event.RecordID); err != nil {
				// The mention is already in the graph; a failed status
				// update must not fail the message.
				log.Error("failed to mark record indexed",
					"record_id", event.RecordID,
					"error", err,
				)
			}
		}
		log.Debug("record indexed",
			"record_id", event.RecordID,
			"source", tag,
			"journal", event.Journal,
		)
		return nil
	}
}

// graphSourceTag maps a wire source identifier to the graph's source tag.
func graphSourceTag(wire string) (string, error) {
	switch wire {
	case ingestion.SourcePubMed:
		return graph.SourcePubMed, nil
	case ingestion.SourceClinicalTrial:
		return graph.SourceClinicalTrial, nil
	default:
		return "", fmt.Errorf("%w: unknown source %q", apperrors.ErrInvalidInput, wire)
	}
}

func markIndexed(ctx context.Context, db *postgres.Client, recordID string) error {
	_, err := db.DB.ExecContext(ctx,
		`UPDATE records SET indexed_at = NOW() WHERE id = $1`, recordID)
	return err
}
