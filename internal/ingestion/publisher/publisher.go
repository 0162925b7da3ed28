// Package publisher persists accepted records to PostgreSQL and publishes
// record events to Kafka for downstream indexing.
package publisher

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/sciwatch/drug-mentions-platform/internal/dates"
	"github.com/sciwatch/drug-mentions-platform/internal/ingestion"
	"github.com/sciwatch/drug-mentions-platform/pkg/kafka"
	"github.com/sciwatch/drug-mentions-platform/pkg/postgres"
)

// Publisher coordinates record persistence and Kafka event production.
//
// It requires a `records` table:
//
//	CREATE TABLE records (
//	    id          BIGSERIAL PRIMARY KEY,
//	    external_id TEXT,
//	    source      TEXT NOT NULL,
//	    title       TEXT NOT NULL,
//	    journal     TEXT NOT NULL,
//	    pub_date    DATE NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    indexed_at  TIMESTAMPTZ
//	);
//
// indexed_at is set by the indexer once the record's mentions are in the
// graph.
type Publisher struct {
	db       *postgres.Client
	producer *kafka.Producer
	logger   *slog.Logger
}

// New creates a Publisher with the given database and Kafka producer.
func New(db *postgres.Client, producer *kafka.Producer) *Publisher {
	return &Publisher{
		db:       db,
		producer: producer,
		logger:   slog.Default().With("component", "publisher"),
	}
}

// Ingest persists the record in PostgreSQL and publishes a RecordEvent to
// Kafka. The request is assumed validated; the date is re-parsed here to
// normalize it to YYYY-MM-DD before it crosses the wire.
func (p *Publisher) Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	pubDate, err := dates.Parse(req.Date)
	if err != nil {
		return nil, err
	}
	isoDate := pubDate.Format("2006-01-02")
	title := req.NormalizedTitle()

	var recordID string
	err = p.db.InTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx,
			`INSERT INTO records (external_id, source, title, journal, pub_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
			nullableString(req.RecordID), req.Source, title, req.Journal, isoDate,
		).Scan(&recordID)
	})
	if err != nil {
		return nil, fmt.Errorf("inserting record: %w", err)
	}

	event := kafka.Event{
		Key: req.Source,
		Value: ingestion.RecordEvent{
			RecordID:   recordID,
			Source:     req.Source,
			Title:      title,
			Journal:    req.Journal,
			Date:       isoDate,
			IngestedAt: time.Now().UTC(),
		},
	}
	if err := p.producer.Publish(ctx, event); err != nil {
		p.logger.Error("failed to publish to kafka, record not indexed",
			"record_id", recordID,
			"source", req.Source,
			"error", err,
		)
	}
	return &ingestion.IngestResponse{
		RecordID: recordID,
		Source:   req.Source,
		Status:   "ACCEPTED",
	}, nil
}

// nullableString converts a Go string to a sql.NullString, treating the
// empty string as NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
