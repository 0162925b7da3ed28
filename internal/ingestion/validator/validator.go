// Package validator provides input validation for ingestion requests. It
// checks the source tag, required fields, and date format, returning
// per-field error details.
package validator

import (
	"fmt"
	"strings"

	"github.com/sciwatch/drug-mentions-platform/internal/dates"
	"github.com/sciwatch/drug-mentions-platform/internal/ingestion"
)

const (
	maxTitleLength   = 4096
	maxJournalLength = 1024
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// ValidateIngestRequest checks that the request carries a known source, a
// non-empty title and journal, and a parseable date.
func ValidateIngestRequest(req *ingestion.IngestRequest) error {
	errs := make(map[string]string)

	switch req.Source {
	case ingestion.SourcePubMed, ingestion.SourceClinicalTrial:
	case "":
		errs["source"] = "source is required"
	default:
		errs["source"] = fmt.Sprintf("unknown source %q", req.Source)
	}

	title := strings.TrimSpace(req.NormalizedTitle())
	if title == "" {
		errs["title"] = "title or scientific_title is required"
	} else if len(title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}

	journal := strings.TrimSpace(req.Journal)
	if journal == "" {
		errs["journal"] = "journal is required"
	} else if len(journal) > maxJournalLength {
		errs["journal"] = fmt.Sprintf("journal must be at most %d characters", maxJournalLength)
	}

	if req.Date == "" {
		errs["date"] = "date is required"
	} else if _, err := dates.Parse(req.Date); err != nil {
		errs["date"] = fmt.Sprintf("date %q matches no accepted format", req.Date)
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
