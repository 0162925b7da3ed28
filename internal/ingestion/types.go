// Package ingestion defines the request/response types and Kafka event
// schemas used by the record ingestion pipeline.
package ingestion

import "time"

// Source identifiers accepted on the wire. They map to the graph's fixed
// source tags.
const (
	SourcePubMed        = "pubmed"
	SourceClinicalTrial = "clinical_trial"
)

// IngestRequest is the JSON body accepted by the ingestion HTTP endpoint.
// Clinical-trial payloads may carry scientific_title instead of title; it is
// renamed before the record reaches the indexing core.
type IngestRequest struct {
	Source          string `json:"source"`
	RecordID        string `json:"id"`
	Title           string `json:"title"`
	ScientificTitle string `json:"scientific_title,omitempty"`
	Journal         string `json:"journal"`
	Date            string `json:"date"`
}

// NormalizedTitle returns the title field, falling back to scientific_title.
func (r *IngestRequest) NormalizedTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.ScientificTitle
}

// IngestResponse is returned to the caller after a record is accepted.
type IngestResponse struct {
	RecordID string `json:"record_id"`
	Source   string `json:"source"`
	Status   string `json:"status"`
}

// RecordEvent is the Kafka message payload produced after a record is
// persisted and ready for indexing. Date is already normalized to
// YYYY-MM-DD.
type RecordEvent struct {
	RecordID   string    `json:"record_id"`
	Source     string    `json:"source"`
	Title      string    `json:"title"`
	Journal    string    `json:"journal"`
	Date       string    `json:"date"`
	IngestedAt time.Time `json:"ingested_at"`
}
